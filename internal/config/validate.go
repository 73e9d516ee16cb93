// README: Config validation; rejects unknown drivers and auth modes and incomplete auth settings.
package config

import (
	"fmt"
	"time"
)

func (c Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown CAREBOOK_DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Auth.Mode {
	case AuthNone:
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("config: CAREBOOK_JWT_SECRET is required for auth mode %q", c.Auth.Mode)
		}
	case AuthFirebase:
		if c.Auth.FirebaseProjectID == "" {
			return fmt.Errorf("config: CAREBOOK_FIREBASE_PROJECT_ID is required for auth mode %q", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("config: unknown CAREBOOK_AUTH_MODE %q", c.Auth.Mode)
	}
	if _, err := time.LoadLocation(c.Booking.TimeZone); err != nil {
		return fmt.Errorf("config: CAREBOOK_TIMEZONE: %w", err)
	}
	if c.Redis.LockTTL <= 0 {
		return fmt.Errorf("config: CAREBOOK_ASSIGN_LOCK_TTL must be positive")
	}
	return nil
}
