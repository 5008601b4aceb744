package config

import (
	"errors"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/leapstack-labs/buster/internal/apperr"
)

// Validate checks setting ranges. Whether an API key is required depends on
// the command, so it is checked there.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.APIURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Min(0)),
		validation.Field(&c.Retries, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(0)),
		validation.Field(&c.Output, validation.In("text", "json")),
	)
	if err != nil {
		return &apperr.ConfigurationError{
			Message: "invalid settings",
			Err:     err,
			Hint:    "check BUSTER_* environment variables, .env and command flags",
		}
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
