package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schemes lists the DSN schemes a store can be opened from.
var Schemes = []string{"postgres", "postgresql", "mongodb", "memory"}

// Validate checks struct tags and the rules tags cannot express.
// Load calls it automatically.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("%s: failed %q (value %v)", strings.ToLower(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return err
	}

	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Broker.validate(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	u, err := url.Parse(d.DSN)
	if err != nil {
		return fmt.Errorf("dsn: %w", err)
	}
	if !slices.Contains(Schemes, u.Scheme) {
		return fmt.Errorf("dsn scheme %q not supported (want one of %s)", u.Scheme, strings.Join(Schemes, ", "))
	}
	if d.MinConns > d.MaxConns {
		return fmt.Errorf("min_conns (%d) must not exceed max_conns (%d)", d.MinConns, d.MaxConns)
	}
	return nil
}

func (b *BrokerConfig) validate() error {
	if _, err := time.Parse("2006-01-02", b.IdentifiersFrom); err != nil {
		return fmt.Errorf("identifiers_from: %w", err)
	}
	if _, err := time.Parse("2006-01-02T15:04:05", b.HistoryFrom); err != nil {
		return fmt.Errorf("history_from: %w", err)
	}
	return nil
}
