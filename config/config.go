// Package config loads the recordkit command configuration from a YAML
// file, RECORDKIT_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/mapper"
)

// Defaults.
const (
	DefaultDriver        = dialect.SQLite
	DefaultOutput        = "json"
	DefaultSlowThreshold = 500 * time.Millisecond
	DefaultTimeZone      = "UTC"
)

// Drivers lists the database/sql driver names the command registers.
var Drivers = []string{dialect.MySQL, dialect.Postgres, dialect.PGX, dialect.SQLite}

// Outputs lists the supported output formats.
var Outputs = []string{"json", "yaml", "msgpack", "table"}

// Config holds the command configuration.
type Config struct {
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
	Verbose bool   `koanf:"verbose"`
	// Debug logs every statement.
	Debug bool `koanf:"debug"`
	// SlowThreshold is the duration above which a statement is logged as
	// slow. Zero disables the slow query log.
	SlowThreshold time.Duration `koanf:"slow_threshold"`
	// Mappers are the value mappers of the chain, in lookup order.
	Mappers  []string `koanf:"mappers"`
	TimeZone string   `koanf:"timezone"`
	Output   string   `koanf:"output"`
	// Session variables set on the connection before each statement.
	Session map[string]string `koanf:"session"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.TimeZone == "" {
		c.TimeZone = DefaultTimeZone
	}
	if c.Mappers == nil {
		c.Mappers = mapper.Names()
	}
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Drivers, c.Driver) {
		errs = append(errs, fmt.Errorf("unknown driver %q (available: %s)", c.Driver, strings.Join(Drivers, ", ")))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	} else if err := validateDSN(c.Driver, c.DSN); err != nil {
		errs = append(errs, fmt.Errorf("invalid %s dsn: %w", c.Driver, err))
	}
	for _, name := range c.Mappers {
		if _, err := mapper.ByName(name); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone: %w", err))
	}
	if !slices.Contains(Outputs, c.Output) {
		errs = append(errs, fmt.Errorf("unknown output %q (available: %s)", c.Output, strings.Join(Outputs, ", ")))
	}
	if c.SlowThreshold < 0 {
		errs = append(errs, errors.New("slow_threshold must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func validateDSN(driver, dsn string) error {
	switch driver {
	case dialect.MySQL:
		_, err := mysql.ParseDSN(dsn)
		return err
	case dialect.Postgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			_, err := pq.ParseURL(dsn)
			return err
		}
	case dialect.PGX:
		_, err := pgx.ParseConfig(dsn)
		return err
	}
	return nil
}

// Chain builds the configured mapper chain. The date mapper reads zone-less
// values in TimeZone.
func (c *Config) Chain() (*mapper.Chain, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	chain := mapper.NewChain()
	for _, name := range c.Mappers {
		m, err := mapper.ByName(name)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if d, ok := m.(*mapper.Date); ok {
			d.Location = loc
		}
		chain.Add(m)
	}
	return chain, nil
}
