// internal/config/constants.go
package config

import "time"

const (
	DefaultAppName        = "Gigster"
	DefaultFrontendURL    = "http://localhost:5173"
	DefaultServerPort     = ":8800"
	DefaultLogLevel       = "info"
	DefaultOTPLength      = 6
	DefaultOTPTTL         = 10 * time.Minute
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSessionCookie  = "accessToken"
	DefaultSweepInterval  = time.Minute
	DefaultRedisKeyPrefix = "gigster"
)
