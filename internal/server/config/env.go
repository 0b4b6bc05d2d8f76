package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"accountd/internal/common"
)

// parseEnv overlays Config fields from environment variables. Durations are
// accepted as integers: minutes for the access token, hours for the reset
// token (reset links travel over email and need a longer window). A TTL
// variable that is set but not a number is a configuration error, not a
// fallback to the default.
func parseEnv(config *Config) error {
	config.Address = firstNonEmpty(os.Getenv("ADDRESS"), config.Address)
	config.DatabaseDSN = firstNonEmpty(os.Getenv("DATABASE_DSN"), config.DatabaseDSN)
	config.SecretKey = firstNonEmpty(os.Getenv("SECRET_KEY"), config.SecretKey)
	config.SigningAlgorithm = firstNonEmpty(os.Getenv("SIGNING_ALGORITHM"), config.SigningAlgorithm)
	config.FrontendURL = firstNonEmpty(os.Getenv("FRONTEND_URL"), config.FrontendURL)
	config.SMTPHost = firstNonEmpty(os.Getenv("SMTP_HOST"), config.SMTPHost)
	config.SMTPPort = firstNonEmpty(os.Getenv("SMTP_PORT"), config.SMTPPort)
	config.SMTPUsername = firstNonEmpty(os.Getenv("SMTP_USERNAME"), config.SMTPUsername)
	config.SMTPPassword = firstNonEmpty(os.Getenv("SMTP_PASSWORD"), config.SMTPPassword)
	config.FromEmail = firstNonEmpty(os.Getenv("FROM_EMAIL"), config.FromEmail)

	if v, ok, err := intFromEnv("ACCESS_TOKEN_TTL_MINUTES"); err != nil {
		return err
	} else if ok {
		config.AccessTokenValidityDuration = time.Duration(v) * time.Minute
	}
	if v, ok, err := intFromEnv("RESET_TOKEN_TTL_HOURS"); err != nil {
		return err
	} else if ok {
		config.ResetTokenValidityDuration = time.Duration(v) * time.Hour
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// intFromEnv reads an integer from the named variable. ok is false when the
// variable is absent; a present but unparseable value is an error.
func intFromEnv(name string) (int, bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", common.ErrorConfiguration, name, v)
	}
	return i, true, nil
}
