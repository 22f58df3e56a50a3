package constant

const (
	// DefaultLoginMaxAttempts is the number of failed logins before an account lock.
	DefaultLoginMaxAttempts = 5
	// DefaultMaxActiveSessions caps concurrent logins per user.
	DefaultMaxActiveSessions = 3
	// DefaultLockoutWindowMin bounds both the failure counter and the lock itself.
	DefaultLockoutWindowMin = 15

	DefaultAccessExpiryMin  = 15
	DefaultRefreshExpiryMin = 10080 // 7 days

	DefaultGlobalLimit       = 200
	DefaultGlobalWindowMin   = 15
	DefaultLoginLimit        = 5
	DefaultLoginWindowMin    = 5
	DefaultRegisterLimit     = 3
	DefaultRegisterWindowMin = 60

	DefaultUserAPILimit     = 100
	DefaultUserAPIWindowMin = 1

	UnknownLocation = "Unknown"
)
