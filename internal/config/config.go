// Package config loads boardman configuration from YAML with environment
// fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/boardman/internal/board"
)

// DefaultPath is where boardman looks for configuration when --config is
// not given.
const DefaultPath = ".boardman/config.yaml"

// Config is the boardman configuration file.
type Config struct {
	// Owner is the GitHub organization or user login that owns the project.
	Owner string `yaml:"owner"`

	// ProjectNumber is the project's number as shown in its URL.
	ProjectNumber int `yaml:"project_number"`

	// TokenEnv names the environment variable holding the API token.
	// Default: BOARDMAN_TOKEN, falling back to GITHUB_TOKEN.
	TokenEnv string `yaml:"token_env,omitempty"`

	// Agent is the default agent name for claim operations when --agent
	// is not given. Shorthand names are normalized ("claude" -> "Claude Code").
	Agent string `yaml:"agent,omitempty"`

	// ClaimTTLHours is the global claim timeout. A claim older than this is
	// stale and stealable by any agent. Default: 24.
	ClaimTTLHours int `yaml:"claim_ttl_hours,omitempty"`

	// CommentWindow is how many recent comments claim reconstruction reads.
	// Default: 50.
	CommentWindow int `yaml:"comment_window,omitempty"`

	// ExcludeLabels lists labels that remove an issue from ready work.
	ExcludeLabels []string `yaml:"exclude_labels,omitempty"`

	// AgentAliases extends the built-in shorthand-to-display-name map.
	AgentAliases map[string]string `yaml:"agent_aliases,omitempty"`

	// JournalPath is the local operation journal database. Empty disables
	// journaling. Default: .boardman/journal.db.
	JournalPath string `yaml:"journal_path,omitempty"`

	// Fields overrides the board's field display names.
	Fields board.FieldNames `yaml:"fields,omitempty"`
}

// Default returns a config with defaults applied but no board coordinates.
func Default() *Config {
	return &Config{
		TokenEnv:      "BOARDMAN_TOKEN",
		ClaimTTLHours: 24,
		CommentWindow: 50,
		JournalPath:   ".boardman/journal.db",
		Fields:        board.DefaultFieldNames(),
	}
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values left by explicit empty YAML keys.
func (c *Config) applyDefaults() {
	if c.TokenEnv == "" {
		c.TokenEnv = "BOARDMAN_TOKEN"
	}
	if c.ClaimTTLHours <= 0 {
		c.ClaimTTLHours = 24
	}
	if c.CommentWindow <= 0 {
		c.CommentWindow = 50
	}
	defaults := board.DefaultFieldNames()
	if c.Fields.Status == "" {
		c.Fields.Status = defaults.Status
	}
	if c.Fields.Priority == "" {
		c.Fields.Priority = defaults.Priority
	}
	if c.Fields.Agent == "" {
		c.Fields.Agent = defaults.Agent
	}
	if c.Fields.Type == "" {
		c.Fields.Type = defaults.Type
	}
	if c.Fields.BlockedBy == "" {
		c.Fields.BlockedBy = defaults.BlockedBy
	}
	if c.Fields.DiscoveredFrom == "" {
		c.Fields.DiscoveredFrom = defaults.DiscoveredFrom
	}
}

// Validate checks the config for required board coordinates.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.ProjectNumber <= 0 {
		return fmt.Errorf("project_number must be positive (got %d)", c.ProjectNumber)
	}
	return nil
}

// ClaimTTL returns the claim timeout as a duration.
func (c *Config) ClaimTTL() time.Duration {
	return time.Duration(c.ClaimTTLHours) * time.Hour
}

// Token resolves the API token from the configured environment variable,
// falling back to GITHUB_TOKEN.
func (c *Config) Token() (string, error) {
	if v := os.Getenv(c.TokenEnv); v != "" {
		return v, nil
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no API token found (set %s or GITHUB_TOKEN)", c.TokenEnv)
}
