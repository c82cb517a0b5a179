// Package config provides unified configuration loading for clawback.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/clawback/internal/models"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".clawback"

// placeholderKey is the key shipped in the sample .env file; it counts as unset.
const placeholderKey = "sk-or-v1-xxxxxxxxxxxxx"

// ClawbackConfig contains all clawback configuration settings.
type ClawbackConfig struct {
	// Provider configures the remote narrative provider.
	Provider ProviderConfig `json:"provider" yaml:"provider"`

	// Simulation controls pacing and determinism of a shift.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Journal configures the session journal.
	Journal JournalConfig `json:"journal" yaml:"journal"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ProviderConfig configures the OpenAI-compatible chat completions endpoint
// used to generate requests, personas and chat lines.
type ProviderConfig struct {
	// Enabled turns the remote provider on. Without it every shift uses the
	// built-in scenario pool and personas.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Backend selects the generator: "openrouter" (default) calls the remote
	// API, "local" runs a GGUF model in-process.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// APIKey is the provider key. Supports ${VAR} syntax for env vars.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the chat completions base URL.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the model identifier sent with every call.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// RequestTimeout bounds request generation.
	RequestTimeout time.Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`

	// PersonaTimeout bounds persona generation.
	PersonaTimeout time.Duration `json:"persona_timeout,omitempty" yaml:"persona_timeout,omitempty"`

	// LineTimeout bounds a single narrative line.
	LineTimeout time.Duration `json:"line_timeout,omitempty" yaml:"line_timeout,omitempty"`

	// LocalLibPath is the directory holding the llama.cpp shared libraries.
	// Only used when backend is "local". Empty falls back to YZMA_LIB.
	LocalLibPath string `json:"local_lib_path,omitempty" yaml:"local_lib_path,omitempty"`

	// LocalModelPath is the GGUF model file. Only used when backend is "local".
	LocalModelPath string `json:"local_model_path,omitempty" yaml:"local_model_path,omitempty"`

	// LocalGPULayers is the number of layers offloaded to GPU (0 = CPU only).
	LocalGPULayers int `json:"local_gpu_layers,omitempty" yaml:"local_gpu_layers,omitempty"`

	// LocalContextSize is the context window in tokens. 0 uses the default.
	LocalContextSize int `json:"local_context_size,omitempty" yaml:"local_context_size,omitempty"`
}

// BackendLocal selects the in-process model.
const BackendLocal = "local"

// IsLocal reports whether the local backend is selected.
func (c ProviderConfig) IsLocal() bool {
	return c.Backend == BackendLocal
}

// Usable reports whether the provider is enabled and has what its backend
// needs: a model path for local, an API key otherwise.
func (c ProviderConfig) Usable() bool {
	if !c.Enabled {
		return false
	}
	if c.IsLocal() {
		return c.LocalModelPath != ""
	}
	return c.HasAPIKey()
}

// HasAPIKey reports whether a usable key is configured.
func (c ProviderConfig) HasAPIKey() bool {
	k := strings.TrimSpace(c.APIKey)
	return k != "" && k != placeholderKey
}

// RedactedAPIKey returns the API key with most characters masked.
// Shows first 4 and last 4 characters, e.g., "sk-o...xyz9".
// Returns "" for empty keys and "(set)" for keys shorter than 12 chars.
func (c ProviderConfig) RedactedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) < 12 {
		return "(set)"
	}
	return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// String implements fmt.Stringer to prevent accidental API key logging.
func (c ProviderConfig) String() string {
	if c.IsLocal() {
		return fmt.Sprintf("ProviderConfig{Enabled:%t, Backend:local, Model:%s}",
			c.Enabled, c.LocalModelPath)
	}
	return fmt.Sprintf("ProviderConfig{Enabled:%t, APIKey:%s, Model:%s, BaseURL:%s}",
		c.Enabled, c.RedactedAPIKey(), c.Model, c.BaseURL)
}

// SimulationConfig controls a shift.
type SimulationConfig struct {
	// Difficulty is "easy", "normal" or "hard".
	Difficulty string `json:"difficulty" yaml:"difficulty"`

	// Seed seeds the scheduler's random source. 0 picks a random seed.
	Seed uint64 `json:"seed" yaml:"seed"`

	// ShiftDays is the number of workdays in a shift. 0 runs until game over.
	ShiftDays int `json:"shift_days" yaml:"shift_days"`

	// Speed is the initial clock speed: "paused", "normal", "fast" or "turbo".
	Speed string `json:"speed" yaml:"speed"`

	// TickInterval overrides the real-time interval of the normal speed.
	// Fast and turbo scale from it.
	TickInterval time.Duration `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`

	// TypingDelayMin and TypingDelayMax bound the simulated typing delay
	// before a narrative line is delivered.
	TypingDelayMin time.Duration `json:"typing_delay_min" yaml:"typing_delay_min"`
	TypingDelayMax time.Duration `json:"typing_delay_max" yaml:"typing_delay_max"`

	// NPC selects the coworker persona by id. Empty picks the first persona.
	NPC string `json:"npc,omitempty" yaml:"npc,omitempty"`
}

// JournalConfig configures the SQLite session journal.
type JournalConfig struct {
	// Path is the database file. ":memory:" keeps the journal in memory.
	Path string `json:"path" yaml:"path"`
}

// LoggingConfig configures clawback's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to ~/.clawback/decisions.jsonl.
	// "trace" additionally includes full provider prompt/response content.
	Level string `json:"level" yaml:"level"`
}

// Default returns a ClawbackConfig with sensible defaults.
func Default() *ClawbackConfig {
	return &ClawbackConfig{
		Provider: ProviderConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "deepseek/deepseek-chat-v3-0324",
			RequestTimeout: 10 * time.Second,
			PersonaTimeout: 12 * time.Second,
			LineTimeout:    8 * time.Second,
		},
		Simulation: SimulationConfig{
			Difficulty:     "normal",
			ShiftDays:      1,
			Speed:          "normal",
			TypingDelayMin: 800 * time.Millisecond,
			TypingDelayMax: 1400 * time.Millisecond,
		},
		Journal: JournalConfig{
			Path: ":memory:",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.clawback/config.yaml -> environment variables
func Load() (*ClawbackConfig, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit config file. An empty path uses the
// default location, which may be missing; an explicit path must exist.
func LoadPath(path string) (*ClawbackConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*ClawbackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Provider.APIKey = expandEnvVars(config.Provider.APIKey)
	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *ClawbackConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

var validBackends = map[string]bool{"openrouter": true, BackendLocal: true}

var validSpeeds = map[string]bool{"paused": true, "normal": true, "fast": true, "turbo": true}

// Validate checks that the configuration is valid.
func (c *ClawbackConfig) Validate() error {
	if _, err := models.ParseDifficulty(c.Simulation.Difficulty); err != nil {
		return err
	}
	if c.Simulation.Speed != "" && !validSpeeds[c.Simulation.Speed] {
		return fmt.Errorf("invalid speed: %s (valid: paused, normal, fast, turbo)", c.Simulation.Speed)
	}
	if c.Simulation.ShiftDays < 0 {
		return fmt.Errorf("shift_days must be non-negative, got %d", c.Simulation.ShiftDays)
	}
	if c.Simulation.TickInterval < 0 {
		return fmt.Errorf("tick_interval must be non-negative, got %v", c.Simulation.TickInterval)
	}
	if c.Simulation.TypingDelayMin < 0 || c.Simulation.TypingDelayMax < c.Simulation.TypingDelayMin {
		return fmt.Errorf("typing delay range invalid: %v..%v", c.Simulation.TypingDelayMin, c.Simulation.TypingDelayMax)
	}

	for name, d := range map[string]time.Duration{
		"request_timeout": c.Provider.RequestTimeout,
		"persona_timeout": c.Provider.PersonaTimeout,
		"line_timeout":    c.Provider.LineTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, d)
		}
	}

	if c.Provider.Backend != "" && !validBackends[c.Provider.Backend] {
		return fmt.Errorf("invalid provider backend: %s (valid: openrouter, local)", c.Provider.Backend)
	}
	if c.Provider.LocalGPULayers < 0 || c.Provider.LocalContextSize < 0 {
		return fmt.Errorf("local_gpu_layers and local_context_size must be non-negative")
	}
	if c.Provider.Enabled && c.Provider.IsLocal() && c.Provider.LocalModelPath == "" {
		return fmt.Errorf("provider backend local requires local_model_path")
	}

	if c.Journal.Path == "" {
		return fmt.Errorf("journal path must not be empty (use :memory: for an in-memory journal)")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Get returns a configuration value by dot-notation key. The API key is
// always redacted.
func (c *ClawbackConfig) Get(key string) (any, bool) {
	switch key {
	case "provider.enabled":
		return c.Provider.Enabled, true
	case "provider.backend":
		return c.Provider.Backend, true
	case "provider.api_key":
		return c.Provider.RedactedAPIKey(), true
	case "provider.base_url":
		return c.Provider.BaseURL, true
	case "provider.model":
		return c.Provider.Model, true
	case "provider.request_timeout":
		return c.Provider.RequestTimeout.String(), true
	case "provider.persona_timeout":
		return c.Provider.PersonaTimeout.String(), true
	case "provider.line_timeout":
		return c.Provider.LineTimeout.String(), true
	case "provider.local_lib_path":
		return c.Provider.LocalLibPath, true
	case "provider.local_model_path":
		return c.Provider.LocalModelPath, true
	case "provider.local_gpu_layers":
		return c.Provider.LocalGPULayers, true
	case "provider.local_context_size":
		return c.Provider.LocalContextSize, true
	case "simulation.difficulty":
		return c.Simulation.Difficulty, true
	case "simulation.seed":
		return c.Simulation.Seed, true
	case "simulation.shift_days":
		return c.Simulation.ShiftDays, true
	case "simulation.speed":
		return c.Simulation.Speed, true
	case "simulation.tick_interval":
		return c.Simulation.TickInterval.String(), true
	case "simulation.typing_delay_min":
		return c.Simulation.TypingDelayMin.String(), true
	case "simulation.typing_delay_max":
		return c.Simulation.TypingDelayMax.String(), true
	case "simulation.npc":
		return c.Simulation.NPC, true
	case "journal.path":
		return c.Journal.Path, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Keys lists every key accepted by Get, sorted.
func Keys() []string {
	keys := []string{
		"provider.enabled", "provider.api_key", "provider.base_url", "provider.model",
		"provider.request_timeout", "provider.persona_timeout", "provider.line_timeout",
		"provider.backend", "provider.local_lib_path", "provider.local_model_path",
		"provider.local_gpu_layers", "provider.local_context_size",
		"simulation.difficulty", "simulation.seed", "simulation.shift_days", "simulation.speed",
		"simulation.tick_interval", "simulation.typing_delay_min", "simulation.typing_delay_max",
		"simulation.npc", "journal.path", "logging.level",
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a configuration value by dot-notation key.
func (c *ClawbackConfig) Set(key, value string) error {
	switch key {
	case "provider.enabled":
		c.Provider.Enabled = parseBool(value)
	case "provider.api_key":
		c.Provider.APIKey = value
	case "provider.base_url":
		c.Provider.BaseURL = value
	case "provider.model":
		c.Provider.Model = value
	case "provider.backend":
		if !validBackends[value] {
			return fmt.Errorf("invalid provider backend: %s (valid: openrouter, local)", value)
		}
		c.Provider.Backend = value
	case "provider.local_lib_path":
		c.Provider.LocalLibPath = value
	case "provider.local_model_path":
		c.Provider.LocalModelPath = value
	case "provider.local_gpu_layers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid local_gpu_layers: %s (must be a non-negative integer)", value)
		}
		c.Provider.LocalGPULayers = n
	case "provider.local_context_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid local_context_size: %s (must be a non-negative integer)", value)
		}
		c.Provider.LocalContextSize = n
	case "simulation.difficulty":
		d, err := models.ParseDifficulty(value)
		if err != nil {
			return err
		}
		c.Simulation.Difficulty = string(d)
	case "simulation.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		c.Simulation.Seed = n
	case "simulation.shift_days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid shift_days: %s (must be a non-negative integer)", value)
		}
		c.Simulation.ShiftDays = n
	case "simulation.speed":
		if !validSpeeds[value] {
			return fmt.Errorf("invalid speed: %s (valid: paused, normal, fast, turbo)", value)
		}
		c.Simulation.Speed = value
	case "simulation.npc":
		c.Simulation.NPC = value
	case "journal.path":
		c.Journal.Path = value
	case "logging.level":
		c.Logging.Level = value
	default:
		return fmt.Errorf("unknown or read-only configuration key: %s", key)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *ClawbackConfig) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		config.Provider.APIKey = v
		if !isSet("CLAWBACK_PROVIDER_ENABLED") && config.Provider.HasAPIKey() {
			config.Provider.Enabled = true
		}
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		config.Provider.Model = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		config.Provider.BaseURL = v
	}
	if v := os.Getenv("CLAWBACK_PROVIDER_BACKEND"); v != "" {
		config.Provider.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CLAWBACK_LOCAL_MODEL"); v != "" {
		config.Provider.LocalModelPath = v
	}
	if v := os.Getenv("CLAWBACK_PROVIDER_ENABLED"); v != "" {
		config.Provider.Enabled = parseBool(v)
	}

	if v := os.Getenv("CLAWBACK_DIFFICULTY"); v != "" {
		config.Simulation.Difficulty = strings.ToLower(v)
	}
	if v := os.Getenv("CLAWBACK_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}
	if v := os.Getenv("CLAWBACK_SHIFT_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.ShiftDays = n
		}
	}
	if v := os.Getenv("CLAWBACK_SPEED"); v != "" {
		config.Simulation.Speed = strings.ToLower(v)
	}
	if v := os.Getenv("CLAWBACK_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Simulation.TickInterval = d
		}
	}
	if v := os.Getenv("CLAWBACK_NPC"); v != "" {
		config.Simulation.NPC = v
	}

	if v := os.Getenv("CLAWBACK_JOURNAL"); v != "" {
		config.Journal.Path = v
	}

	if v := os.Getenv("CLAWBACK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

func isSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
