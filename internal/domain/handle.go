package domain

import (
	"fmt"
	"strings"
)

// PlayerHandle is the human readable Riot ID of a player, e.g. "Kaneki#3008"
type PlayerHandle struct {
	GameName string
	TagLine  string
}

func (h PlayerHandle) String() string {
	return fmt.Sprintf("%s#%s", h.GameName, h.TagLine)
}

// Splits on the last '#', since game names may contain one while tag lines can not
func ParseHandle(raw string) (PlayerHandle, error) {
	trimmed := strings.TrimSpace(raw)

	i := strings.LastIndexByte(trimmed, '#')
	if i == -1 {
		return PlayerHandle{}, fmt.Errorf("%w: missing '#' in '%s'", ErrInvalidHandle, raw)
	}

	gameName := strings.TrimSpace(trimmed[:i])
	tagLine := strings.TrimSpace(trimmed[i+1:])
	if gameName == "" || tagLine == "" {
		return PlayerHandle{}, fmt.Errorf("%w: empty game name or tag line in '%s'", ErrInvalidHandle, raw)
	}

	return PlayerHandle{GameName: gameName, TagLine: tagLine}, nil
}
