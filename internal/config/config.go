// Package config loads and validates the reviewer's configuration from
// flags, environment variables, and the optional repository config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/codecritic/codecritic/internal/logger"
)

// DefaultBotLogin is the author login of review comments posted from a
// GitHub Actions workflow, which is how the reviewer normally runs.
const DefaultBotLogin = "github-actions[bot]"

// GitHubConfig holds everything needed to talk to the GitHub API about one
// pull request.
type GitHubConfig struct {
	Token    string
	Owner    string
	Repo     string
	PRNumber int
	BotLogin string
}

// OpenAIConfig holds completion service credentials and model parameters.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Config is the full application configuration for one run.
type Config struct {
	GitHub GitHubConfig
	OpenAI OpenAIConfig
	Files  []string
	Logger logger.Config
}

// LoadConfig assembles the configuration from viper, which the CLI has
// already primed with flag bindings and environment fallbacks. It applies
// defaults, parses the GITHUB_REPOSITORY owner/name pair, and validates the
// result.
func LoadConfig() (*Config, error) {
	viper.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	viper.SetDefault("OPENAI_TEMPERATURE", 0.5)
	viper.SetDefault("OPENAI_MAX_TOKENS", 2048)
	viper.SetDefault("BOT_LOGIN", DefaultBotLogin)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	owner, repo, err := ParseRepository(viper.GetString("GITHUB_REPOSITORY"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:    viper.GetString("GITHUB_TOKEN"),
			Owner:    owner,
			Repo:     repo,
			PRNumber: viper.GetInt("GITHUB_PR_ID"),
			BotLogin: viper.GetString("BOT_LOGIN"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      viper.GetString("OPENAI_API_KEY"),
			BaseURL:     viper.GetString("OPENAI_API_BASE"),
			Model:       viper.GetString("OPENAI_MODEL"),
			Temperature: viper.GetFloat64("OPENAI_TEMPERATURE"),
			MaxTokens:   viper.GetInt("OPENAI_MAX_TOKENS"),
		},
		Files: SplitPatterns(viper.GetString("FILES")),
		Logger: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: "stderr",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseRepository splits an "owner/name" repository identifier.
func ParseRepository(repository string) (owner, repo string, err error) {
	if repository == "" {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY must be set to \"owner/name\"")
	}
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GITHUB_REPOSITORY %q, expected \"owner/name\"", repository)
	}
	return parts[0], parts[1], nil
}

// SplitPatterns parses the comma-separated --files value into a pattern
// list, dropping empty entries.
func SplitPatterns(files string) []string {
	var patterns []string
	for _, p := range strings.Split(files, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// Validate checks required fields and parameter ranges.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github token must be set")
	}
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("repository owner and name must be set")
	}
	if c.GitHub.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", c.GitHub.PRNumber)
	}
	if c.GitHub.BotLogin == "" {
		return fmt.Errorf("bot login must be set")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key must be set")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai model must be set")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 1 {
		return fmt.Errorf("openai temperature must be in [0, 1], got: %v", c.OpenAI.Temperature)
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("openai max tokens must be positive, got: %d", c.OpenAI.MaxTokens)
	}
	return nil
}
