package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that values without safe defaults are present. The
// JWT secret and database password are always required in production;
// development and test get permissive defaults so local runs work.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.DBHost == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.DBName == "" {
		errs = append(errs, "DB_NAME is required")
	}

	if IsProduction() {
		if cfg.DBPassword == "" {
			errs = append(errs, "DB_PASSWORD (or db_password secret) is required in production")
		}
		if cfg.JWTSecret == "" {
			errs = append(errs, "JWT_SECRET (or jwt_secret secret) is required in production")
		}
		if cfg.DBSSLMode == "disable" {
			errs = append(errs, "DB_SSL_MODE must not be disable in production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
