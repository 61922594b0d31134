package view

type User struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatarUrl"`
}

type PlatformApiKeyView struct {
	Id      string   `json:"id"`
	Name    string   `json:"name"`
	Revoked bool     `json:"revoked"`
	Roles   []string `json:"roles"`
}

type PublicKey struct {
	Value []byte `json:"value"`
}

const AccessTokenCookieName = "carebridge-access-token"
