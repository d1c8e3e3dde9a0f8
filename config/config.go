package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Thread-reply targets accepted by REPLY_THREAD_TARGET.
const (
	// ReplyInThread answers inside the mention's thread when it has one and
	// at channel level otherwise.
	ReplyInThread = "thread"
	// ReplyToEvent always threads the answer under the mention message itself.
	ReplyToEvent = "event"
)

type Config struct {
	SlackUserToken  string `env:"SLACK_USER_TOKEN"`
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`

	CompletionURL string  `env:"GPT_API_URL"`
	CompletionKey string  `env:"GPT_API_KEY"`
	Model         string  `env:"GPT_MODEL, default=gpt-3.5-turbo"`
	Temperature   float64 `env:"GPT_TEMPERATURE, default=1"`
	EnableActions bool    `env:"ENABLE_ACTIONS, default=true"`

	GitHubToken      string `env:"GITHUB_TOKEN"`
	GitHubOwner      string `env:"GITHUB_OWNER"`
	GitHubRepo       string `env:"GITHUB_REPO"`
	DeployHeadBranch string `env:"DEPLOY_HEAD_BRANCH, default=staging"`
	DeployBaseBranch string `env:"DEPLOY_BASE_BRANCH, default=main"`
	DeployPRTitle    string `env:"DEPLOY_PR_TITLE, default=Deploy staging to main"`

	ReplyThreadTarget string `env:"REPLY_THREAD_TARGET, default=thread"`
	PromptsFile       string `env:"PROMPTS_FILE"`

	Port      string `env:"PORT, default=8080"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"`
}

// Load reads an optional .env file and then decodes the process environment.
// Tokens and URLs are not required: calls that need them fail on their own.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	switch cfg.ReplyThreadTarget {
	case ReplyInThread, ReplyToEvent:
	default:
		return nil, fmt.Errorf("REPLY_THREAD_TARGET must be %q or %q, got %q", ReplyInThread, ReplyToEvent, cfg.ReplyThreadTarget)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	return &cfg, nil
}

// GitHubConfigured returns true when a token and target repository are set.
func (c *Config) GitHubConfigured() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}
