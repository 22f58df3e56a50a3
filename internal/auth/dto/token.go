package dto

import "time"

// TokenPair is what the token service hands back on issuance. The refresh
// token only ever travels in the httpOnly cookie, never in a JSON body.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type AuthResponse struct {
	AccessToken string     `json:"accessToken"`
	User        UserOutput `json:"user"`
}

type SessionMeta struct {
	IPAddress string
	UserAgent string
	Device    string
	Browser   string
	Platform  string
	Location  string
}
