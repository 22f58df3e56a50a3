package dto

import (
	"time"

	"github.com/tradeyard/auth-service/internal/auth/domain"
)

type UserOutput struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// SessionOutput deliberately omits the stored token value.
type SessionOutput struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	Browser    string    `json:"browser"`
	Platform   string    `json:"platform"`
	IPAddress  string    `json:"ip_address"`
	Location   string    `json:"location"`
	LoginTime  time.Time `json:"login_time"`
	LastActive time.Time `json:"last_active"`
}

func NewSessionOutput(s *domain.Session) SessionOutput {
	return SessionOutput{
		ID:         s.ID,
		Device:     s.Device,
		Browser:    s.Browser,
		Platform:   s.Platform,
		IPAddress:  s.IPAddress,
		Location:   s.Location,
		LoginTime:  s.LoginTime,
		LastActive: s.LastActive,
	}
}
