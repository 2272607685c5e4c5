package app

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port        string        `validate:"required,numeric"`
	APIURL      string        `validate:"required,url"`
	RateLimit   float64       `validate:"gte=0"`
	RateBurst   int           `validate:"gte=0"`
	SessionTTL  time.Duration `validate:"gt=0"`
	StalePolicy StalePolicy
}

// Validate runs once at startup. A missing or relative API URL would otherwise
// only show up as a failed request on the first submit.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("config error: parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config error: api url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("config error: api url %q has no host", c.APIURL)
	}

	if c.RateLimit > 0 && c.RateBurst == 0 {
		return fmt.Errorf("config error: rate burst must be positive when rate limiting is enabled")
	}

	return nil
}
