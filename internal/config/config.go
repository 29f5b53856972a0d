// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvJSON holds a JSON document that is merged over the file configuration.
const EnvJSON = "DOCKET_CONFIG_JSON"

// ReadConfig reads main.toml from path. Values can be overridden by DOCKET_*
// environment variables (also read from .env) and by the JSON in DOCKET_CONFIG_JSON.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	// a missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetEnvPrefix("DOCKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if configJSON := os.Getenv(EnvJSON); configJSON != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, configJSON); err != nil {
			return c, err
		}
	}

	applyDefaults(&c)

	return c, validate(c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func applyDefaults(c *Config) {
	defaultDuration := func(d *time.Duration, def time.Duration) {
		if *d <= 0 {
			*d = def
		}
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineSQLite
	}

	defaultDuration(&c.Webserver.Session.ExpiryTime, 24*time.Hour)
	defaultDuration(&c.Webserver.Session.RoleLookupTimeout, 2*time.Second)
	defaultDuration(&c.Tokens.VerifyEmailTTL, 72*time.Hour)
	defaultDuration(&c.Tokens.PasswordResetTTL, time.Hour)
	defaultDuration(&c.Timing.SettingsDebounce, 750*time.Millisecond)
	defaultDuration(&c.Timing.AutosaveDebounce, 300*time.Millisecond)
	defaultDuration(&c.Timing.SavingClearDelay, time.Second)
	defaultDuration(&c.Timing.VerifyRedirectDelay, 1500*time.Millisecond)
}

// validate the settings the daemon can not start without.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Tokens.Secret == "" {
		return errors.Wrap(ErrEmptyTokenSecret, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnsupportedEngine, c.DB.GormEngine)
	}

	return nil
}
