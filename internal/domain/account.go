package domain

type Account struct {
	PUUID    string
	GameName string
	TagLine  string
}

func (a Account) Handle() PlayerHandle {
	return PlayerHandle{GameName: a.GameName, TagLine: a.TagLine}
}
