package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/anfelyns/Password-Guardian-sub000/internal/flagx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. It uses timex.Duration for interval fields, which
// allows parsing both string values such as "15m" and integer
// nanoseconds. After unmarshalling, its fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RegisterCodeTTL              timex.Duration `json:"register_code_ttl"`
	ResetCodeTTL                 timex.Duration `json:"reset_code_ttl"`
	LoginCodeTTL                 timex.Duration `json:"login_code_ttl"`
	StepUpCodeTTL                timex.Duration `json:"stepup_code_ttl"`
	SMTPAddr                     string         `json:"smtp_addr"`
	SMTPFrom                     string         `json:"smtp_from"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any, into the provided Config. If the file cannot
// be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}
	if err := applyJsonFile(config, jsonConfigFile); err != nil {
		panic(err)
	}
}

// applyJsonFile overlays values from the given JSON file onto config.
// Zero-valued duration fields keep their previous values so a partial
// file does not wipe defaults.
func applyJsonFile(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.RegisterCodeTTL, c.RegisterCodeTTL)
	setDuration(&config.ResetCodeTTL, c.ResetCodeTTL)
	setDuration(&config.LoginCodeTTL, c.LoginCodeTTL)
	setDuration(&config.StepUpCodeTTL, c.StepUpCodeTTL)
	if c.SMTPAddr != "" {
		config.SMTPAddr = c.SMTPAddr
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
	if c.SMTPUser != "" {
		config.SMTPUser = c.SMTPUser
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	return nil
}

func setDuration(dst *time.Duration, src timex.Duration) {
	if src.Duration != 0 {
		*dst = src.Duration
	}
}
