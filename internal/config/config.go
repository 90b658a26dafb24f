package config

import (
	"encoding/base64"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"

// CredentialSource selects how the Google service account is provided.
type CredentialSource int

const (
	CredentialsFromFile CredentialSource = iota
	CredentialsFromBase64
)

var config *Config

// Config holds every tunable of a run. Only this struct must be used to
// read configuration; no direct env access elsewhere.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=reddit_matchbot"`

	RedditClientID     string        `env:"REDDIT_CLIENT_ID"`
	RedditClientSecret string        `env:"REDDIT_CLIENT_SECRET"`
	RedditUsername     string        `env:"REDDIT_USERNAME"`
	RedditPassword     string        `env:"REDDIT_PASSWORD"`
	RedditUserAgent    string        `env:"REDDIT_USER_AGENT"`
	RedditAuthURL      string        `env:"REDDIT_AUTH_URL,default=https://www.reddit.com"`
	RedditAPIURL       string        `env:"REDDIT_API_URL,default=https://oauth.reddit.com"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT,default=10s"`

	SheetName         string `env:"SHEET_NAME,default=Reddit_Nepal _Matchmaker-2-0"`
	SheetID           string `env:"SHEET_ID"`
	GoogleCredsFile   string `env:"GOOGLE_CREDS_FILE,default=credentials.json"`
	GoogleCredsBase64 string `env:"GOOGLE_CREDS_BASE64"`

	MinAccountAgeDays int           `env:"MIN_ACCOUNT_AGE_DAYS,default=90"`
	MaxDMRetries      int           `env:"MAX_DM_RETRIES,default=3"`
	DMSendDelay       time.Duration `env:"DM_SEND_DELAY,default=20s"`
	DMRetryDelay      time.Duration `env:"DM_RETRY_DELAY,default=120s"`

	PromNamespace      string `env:"PROM_NAMESPACE,default=matchbot"`
	PromPushgatewayURL string `env:"PROM_PUSHGATEWAY_URL"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrap(err, "failed to load configuration file "+path)
		}
	}

	c, err := Parse()
	if err != nil {
		return err
	}
	config = c
	return nil
}

// Parse maps the current environment onto a fresh Config without touching
// the package-level instance.
func Parse() (*Config, error) {
	c := &Config{}
	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return nil, errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	return c, nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Validate checks that everything a run needs is present for the given
// credential source.
func (c *Config) Validate(source CredentialSource) error {
	required := []struct{ name, value string }{
		{"REDDIT_CLIENT_ID", c.RedditClientID},
		{"REDDIT_CLIENT_SECRET", c.RedditClientSecret},
		{"REDDIT_USERNAME", c.RedditUsername},
		{"REDDIT_PASSWORD", c.RedditPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.New(r.name + " is required")
		}
	}
	if c.SheetName == "" && c.SheetID == "" {
		return errors.New("SHEET_NAME or SHEET_ID is required")
	}
	switch source {
	case CredentialsFromFile:
		if c.GoogleCredsFile == "" {
			return errors.New("GOOGLE_CREDS_FILE is required")
		}
	case CredentialsFromBase64:
		if c.GoogleCredsBase64 == "" {
			return errors.New("GOOGLE_CREDS_BASE64 is required")
		}
	}
	if c.MinAccountAgeDays < 0 {
		return errors.New("MIN_ACCOUNT_AGE_DAYS must not be negative")
	}
	if c.MaxDMRetries < 1 {
		return errors.New("MAX_DM_RETRIES must be at least 1")
	}
	return nil
}

// GoogleCredentials returns the service account JSON for the given source.
func (c *Config) GoogleCredentials(source CredentialSource) ([]byte, error) {
	switch source {
	case CredentialsFromBase64:
		data, err := base64.StdEncoding.DecodeString(c.GoogleCredsBase64)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode GOOGLE_CREDS_BASE64")
		}
		return data, nil
	default:
		data, err := os.ReadFile(c.GoogleCredsFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read google credentials file "+c.GoogleCredsFile)
		}
		return data, nil
	}
}
