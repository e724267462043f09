package riotapi

import (
	"encoding/json"
	"fmt"
)

// A full match payload carries hundreds of fields per participant. Only the
// fields in matchResponse survive minification.
func minifyMatch(match matchResponse) ([]byte, error) {
	data, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match: %w", err)
	}
	return data, nil
}
