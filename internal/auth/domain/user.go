package domain

import "time"

type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	LoginAttempts    int
	IsLocked         bool
	LastLoginAttempt *time.Time
	LastLogin        *time.Time
	CreatedAt        time.Time
}

// Session is one logged-in device/browser instance. Token holds the access
// token issued at login so logout can match the session to delete.
type Session struct {
	ID         string
	UserID     string
	Token      string
	Device     string
	Browser    string
	Platform   string
	IPAddress  string
	Location   string
	UserAgent  string
	LoginTime  time.Time
	LastActive time.Time
	IsActive   bool
}
