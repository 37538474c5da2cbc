package account

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fedchat/e2ee-core/internal/platform/privacylog"
)

// Duration is a time.Duration that unmarshals from yaml scalars like
// "90s" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("account: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Options tunes an account instance. The zero value is usable;
// DefaultOptions fills in the limits most deployments want.
type Options struct {
	// MaxOneTimeKeys caps the unclaimed pool. Generation beyond the cap
	// fails instead of silently dropping keys.
	MaxOneTimeKeys int `yaml:"max_one_time_keys"`

	// ClaimRPS/ClaimBurst throttle one-time key claims per peer label.
	// Zero disables throttling.
	ClaimRPS     float64  `yaml:"claim_rps"`
	ClaimBurst   int      `yaml:"claim_burst"`
	ClaimIdleTTL Duration `yaml:"claim_idle_ttl"`

	Logger *slog.Logger `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		MaxOneTimeKeys: 100,
		ClaimIdleTTL:   Duration(10 * time.Minute),
	}
}

// LoadOptions reads YAML overrides over DefaultOptions. Missing file is
// an error; missing fields keep their defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("account: parse options: %w", err)
	}
	if opts.MaxOneTimeKeys <= 0 {
		opts.MaxOneTimeKeys = DefaultOptions().MaxOneTimeKeys
	}
	return opts, nil
}

// DefaultLogger is the JSON logger used when Options.Logger is unset,
// wrapped so identifiers and key material never log in the clear.
func DefaultLogger() *slog.Logger {
	return slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stdout, nil)))
}
