package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"partyrelay/rules"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAllowedOrigins = errors.New("missing-allowed-origins")
	ErrInvalidValue          = errors.New("invalid-config-value")
)

const AnyOrigin = "*"

type Config struct {
	Addr               string           `yaml:"addr"`
	AllowedOrigins     []string         `yaml:"allowed_origins"`
	Debug              bool             `yaml:"debug"`
	PostgresURL        string           `yaml:"postgres_url"`
	JWTKey             string           `yaml:"jwt_key"`
	TokenAge           time.Duration    `yaml:"token_age"`
	StaticDir          string           `yaml:"static_dir"`
	RejectInvalidMoves bool             `yaml:"reject_invalid_moves"`
	EventsPerSecond    float64          `yaml:"events_per_second"`
	EventsBurst        int              `yaml:"events_burst"`
	ShutdownTimeout    time.Duration    `yaml:"shutdown_timeout"`
	DiceTarget         int              `yaml:"dice_target"`
	Words              []string         `yaml:"words"`
	WordsFile          string           `yaml:"words_file"`
	TriviaQuestions    []rules.Question `yaml:"trivia_questions"`

	// GeneratedJWTKey is set when no key was configured and a random one
	// was made up. Tokens then die with the process.
	GeneratedJWTKey bool `yaml:"-"`
}

func Default() Config {
	return Config{
		Addr:            ":3000",
		TokenAge:        7 * 24 * time.Hour,
		EventsPerSecond: 30,
		EventsBurst:     60,
		ShutdownTimeout: 10 * time.Second,
		DiceTarget:      rules.DefaultDiceTarget,
	}
}

// Load reads the optional CONFIG_FILE, then applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if cfg.JWTKey == "" {
		key, err := randomKey()
		if err != nil {
			return Config{}, err
		}
		cfg.JWTKey = key
		cfg.GeneratedJWTKey = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("POSTGRES_URL"); ok {
		cfg.PostgresURL = v
	}
	if v, ok := lookup("JWT_KEY"); ok {
		cfg.JWTKey = v
	}
	if v, ok := lookup("STATIC_DIR"); ok {
		cfg.StaticDir = v
	}
	if v, ok := lookup("WORDS_FILE"); ok {
		cfg.WordsFile = v
	}

	var err error
	if v, ok := lookup("DEBUG"); ok {
		if cfg.Debug, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%w: DEBUG: %w", ErrInvalidValue, err)
		}
	}
	if v, ok := lookup("REJECT_INVALID_MOVES"); ok {
		if cfg.RejectInvalidMoves, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%w: REJECT_INVALID_MOVES: %w", ErrInvalidValue, err)
		}
	}
	if v, ok := lookup("TOKEN_AGE"); ok {
		if cfg.TokenAge, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: TOKEN_AGE: %w", ErrInvalidValue, err)
		}
	}
	if v, ok := lookup("EVENTS_PER_SECOND"); ok {
		if cfg.EventsPerSecond, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%w: EVENTS_PER_SECOND: %w", ErrInvalidValue, err)
		}
	}
	if v, ok := lookup("EVENTS_BURST"); ok {
		if cfg.EventsBurst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: EVENTS_BURST: %w", ErrInvalidValue, err)
		}
	}
	if v, ok := lookup("DICE_TARGET"); ok {
		if cfg.DiceTarget, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: DICE_TARGET: %w", ErrInvalidValue, err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		return ErrMissingAllowedOrigins
	}
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is empty", ErrInvalidValue)
	case c.TokenAge <= 0:
		return fmt.Errorf("%w: token_age must be positive", ErrInvalidValue)
	case c.EventsPerSecond < 0:
		return fmt.Errorf("%w: events_per_second must not be negative", ErrInvalidValue)
	case c.EventsPerSecond > 0 && c.EventsBurst < 1:
		return fmt.Errorf("%w: events_burst must be at least 1", ErrInvalidValue)
	case c.DiceTarget <= 0:
		return fmt.Errorf("%w: dice_target must be positive", ErrInvalidValue)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdown_timeout must not be negative", ErrInvalidValue)
	}
	for i, q := range c.TriviaQuestions {
		if q.Prompt == "" || len(q.Choices) < 2 || q.Answer < 0 || q.Answer >= len(q.Choices) {
			return fmt.Errorf("%w: trivia question %d", ErrInvalidValue, i)
		}
	}
	return nil
}

// AllowsOrigin reports whether a browser origin may use the server.
func (c Config) AllowsOrigin(origin string) bool {
	return slices.Contains(c.AllowedOrigins, AnyOrigin) || slices.Contains(c.AllowedOrigins, origin)
}

// Questions returns the configured trivia questions, or the built-in set.
func (c Config) Questions() []rules.Question {
	if len(c.TriviaQuestions) > 0 {
		return c.TriviaQuestions
	}
	return rules.DefaultQuestions
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
