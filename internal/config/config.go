package config

import (
	"flag"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Source kinds for the Acquire step.
const (
	SourceLive    = "live"
	SourceFixture = "fixture"
	SourceOEmbed  = "oembed"
)

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"`
	DryRun    bool `env:"DRY_RUN"` // no write calls to the platform

	OwnerName string `env:"OWNER_NAME"` // the account the bot guards
	BotName   string `env:"BOT_NAME"`
	Persona   string `env:"PERSONA"` // replaces the built-in persona when set

	// Acquire
	Source          string `env:"SOURCE"` // live|fixture|oembed
	TargetUsername  string `env:"TARGET_USERNAME"`
	MaxPosts        int    `env:"MAX_POSTS"`
	ExcludeReplies  bool   `env:"EXCLUDE_REPLIES"`
	IncludeRetweets bool   `env:"INCLUDE_RETWEETS"`
	FixtureDB       string `env:"FIXTURE_DB"` // empty = embedded sample posts
	OEmbedURL       string `env:"OEMBED_URL"` // post URL for SOURCE=oembed

	Completion CompletionConfig
	Image      ImageConfig
	Twitter    TwitterConfig

	MediaDir string `env:"MEDIA_DIR"` // staging dir for downloaded images, empty = os.TempDir()

	// DuplicateTextPost keeps the text-only post even when the media post
	// succeeded, which yields two posts per run.
	DuplicateTextPost bool `env:"DUPLICATE_TEXT_POST"`

	// Ask switches the run to tool mode: the question is sent with the
	// city population tool attached and the answer printed. Flag only.
	Ask string

	Credentials Credentials
}

type CompletionConfig struct {
	BaseURL     string  `env:"COMPLETION_BASE_URL"`
	Model       string  `env:"COMPLETION_MODEL"`
	Temperature float64 `env:"COMPLETION_TEMPERATURE"` // <0 = provider default
	ToolModel   string  `env:"TOOL_MODEL"`
}

type ImageConfig struct {
	Enabled bool   `env:"IMAGE_ENABLED"`
	BaseURL string `env:"IMAGE_BASE_URL"`
	Model   string `env:"IMAGE_MODEL"`
	Prompt  string `env:"IMAGE_PROMPT"` // text/template over {{.Owner}} {{.Bot}} {{.Text}} {{.Reply}}
	Width   int    `env:"IMAGE_WIDTH"`
	Height  int    `env:"IMAGE_HEIGHT"`
	Steps   int    `env:"IMAGE_STEPS"`
	Count   int    `env:"IMAGE_COUNT"`
}

type TwitterConfig struct {
	APIVersion        string `env:"TWITTER_API_VERSION"` // 2|1.1, read path only
	VerifyCredentials bool   `env:"VERIFY_CREDENTIALS"`
}

// Defaults returns the configuration every run starts from. Values are then
// overridden by .env, the environment and CLI flags, in that order.
func Defaults() *Config {
	return &Config{
		OwnerName: "Elon Musk",
		BotName:   "Dobby",
		Source:    SourceFixture,
		MaxPosts:  10,
		Completion: CompletionConfig{
			BaseURL:     "https://api.fireworks.ai/inference/v1/",
			Model:       "accounts/fireworks/models/llama-v3p1-8b-instruct",
			Temperature: -1,
			ToolModel:   "accounts/fireworks/models/qwen2p5-72b-instruct",
		},
		Image: ImageConfig{
			Enabled: true,
			BaseURL: "https://api.together.xyz/v1/",
			Model:   "black-forest-labs/FLUX.1-schnell-Free",
			Prompt:  "A loyal house-elf guard dog named {{.Bot}} standing in front of {{.Owner}}, cartoon style",
			Width:   1024,
			Height:  768,
			Steps:   4,
			Count:   1,
		},
		Twitter: TwitterConfig{
			APIVersion: "2",
		},
	}
}

// Load reads .env (if present), the environment and args into a fresh Config.
// It does not check credentials; see RequiredCredentials.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}

	fs := flag.NewFlagSet("poster", flag.ContinueOnError)
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "development logging")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "print what would be posted, make no write calls")
	fs.StringVar(&cfg.OwnerName, "owner", cfg.OwnerName, "name of the account the bot guards")
	fs.StringVar(&cfg.BotName, "bot-name", cfg.BotName, "bot name used in the persona")
	fs.StringVar(&cfg.Persona, "persona", cfg.Persona, "system instruction overriding the built-in persona")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "where the triggering post comes from: live|fixture|oembed")
	fs.StringVar(&cfg.TargetUsername, "username", cfg.TargetUsername, "username (without '@') to fetch posts from when -source=live")
	fs.IntVar(&cfg.MaxPosts, "max-posts", cfg.MaxPosts, "posts to fetch, 1-100")
	fs.BoolVar(&cfg.ExcludeReplies, "exclude-replies", cfg.ExcludeReplies, "skip replies when fetching")
	fs.BoolVar(&cfg.IncludeRetweets, "include-retweets", cfg.IncludeRetweets, "keep retweets when fetching")
	fs.StringVar(&cfg.FixtureDB, "fixture-db", cfg.FixtureDB, "SQLite fixture DB for -source=fixture (empty = built-in sample)")
	fs.StringVar(&cfg.OEmbedURL, "oembed-url", cfg.OEmbedURL, "post URL for -source=oembed")
	fs.StringVar(&cfg.Completion.Model, "model", cfg.Completion.Model, "completion model id")
	fs.Float64Var(&cfg.Completion.Temperature, "temperature", cfg.Completion.Temperature, "sampling temperature, negative = provider default")
	fs.BoolVar(&cfg.Image.Enabled, "image", cfg.Image.Enabled, "generate and attach an image")
	fs.StringVar(&cfg.Image.Prompt, "image-prompt", cfg.Image.Prompt, "image prompt template")
	fs.StringVar(&cfg.MediaDir, "media-dir", cfg.MediaDir, "staging directory for downloaded images")
	fs.StringVar(&cfg.Twitter.APIVersion, "twitter-api-version", cfg.Twitter.APIVersion, "read API: 2|1.1")
	fs.BoolVar(&cfg.DuplicateTextPost, "duplicate-text-post", cfg.DuplicateTextPost, "always send the text-only post too (two posts per run)")
	fs.BoolVar(&cfg.Twitter.VerifyCredentials, "verify-credentials", cfg.Twitter.VerifyCredentials, "check platform credentials before posting")
	fs.StringVar(&cfg.Ask, "ask", cfg.Ask, "ask a question in tool mode instead of running the bot")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	cfg.TargetUsername = strings.TrimPrefix(strings.TrimSpace(cfg.TargetUsername), "@")
	return cfg, nil
}
