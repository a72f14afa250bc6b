package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/smallsquare/internal/logger"
)

const (
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheMemory   = "memory"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultCacheBackend = CachePostgres
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 24 * time.Hour
	defaultMailFrom     = "noreply@smallsquare.dev"
	defaultMailLinkBase = "http://localhost:8000"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the smallsquare service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Used to sign JWT tokens with symmetric algorithm
	SecretKey string

	// Environment
	Environment string

	// Where denylist and mail tokens are kept: redis, postgres or memory
	CacheBackend string
	RedisURL     string

	// Lifetimes of issued tokens
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Zero means bcrypt default cost
	BcryptCost int

	// Signup only with email confirmed beforehand
	RequireVerifiedEmail bool

	MailFrom     string
	MailLinkBase string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		Environment:  defaultEnvironment,
		CacheBackend: defaultCacheBackend,
		AccessTTL:    defaultAccessTTL,
		RefreshTTL:   defaultRefreshTTL,
		MailFrom:     defaultMailFrom,
		MailLinkBase: defaultMailLinkBase,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	// Durations are set in milliseconds
	setMillis := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			*o = time.Duration(ms) * time.Millisecond
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
		"CACHE_BACKEND":          setString(&c.CacheBackend),
		"REDIS_URL":              setString(&c.RedisURL),
		"JWT_ACCESS_EXPIRATION":  setMillis(&c.AccessTTL),
		"JWT_REFRESH_EXPIRATION": setMillis(&c.RefreshTTL),
		"BCRYPT_COST":            setInt(&c.BcryptCost),
		"REQUIRE_VERIFIED_EMAIL": setBool(&c.RequireVerifiedEmail),
		"MAIL_FROM":              setString(&c.MailFrom),
		"MAIL_LINK_BASE":         setString(&c.MailLinkBase),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s value. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("smallsquare", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")
	fs.StringVarP(&c.CacheBackend, "cache", "c", c.CacheBackend, "Cache backend (redis, postgres, memory)")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL, like redis://localhost:6379/0")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt cost, default one if zero")
	fs.BoolVar(&c.RequireVerifiedEmail, "require-verified-email", c.RequireVerifiedEmail, "Allow signup only with verified email")
	fs.StringVar(&c.MailFrom, "mail-from", c.MailFrom, "Sender of mails")
	fs.StringVar(&c.MailLinkBase, "mail-link-base", c.MailLinkBase, "Base of links put into mails")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("secret key must be set")
	case c.DatabaseDSN == "":
		return errors.New("database DSN must be set")
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0:
		return errors.New("token lifetimes must be positive")
	case c.AccessTTL%time.Second != 0 || c.RefreshTTL%time.Second != 0:
		return errors.New("token lifetimes must be whole seconds")
	}

	switch c.CacheBackend {
	case CachePostgres, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL must be set for redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}

	return nil
}
