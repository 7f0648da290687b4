package config

import (
	"strings"

	"github.com/mikequentel/dobby/internal/model"
)

// Recognized secret names.
const (
	FireworksAPIKey          = "FIREWORKS_API_KEY"
	TogetherAPIKey           = "TOGETHER_API_KEY"
	TwitterAPIKey            = "TWITTER_API_KEY"
	TwitterAPIKeySecret      = "TWITTER_API_KEY_SECRET"
	TwitterAccessToken       = "TWITTER_ACCESS_TOKEN"
	TwitterAccessTokenSecret = "TWITTER_ACCESS_TOKEN_SECRET"
	TwitterBearerToken       = "TWITTER_BEARER_TOKEN"
)

// Credentials holds every secret the bot may need. Which ones are required
// depends on the run; see RequiredCredentials.
type Credentials struct {
	FireworksAPIKey string `env:"FIREWORKS_API_KEY"`
	TogetherAPIKey  string `env:"TOGETHER_API_KEY"`

	ConsumerKey       string `env:"TWITTER_API_KEY"`
	ConsumerSecret    string `env:"TWITTER_API_KEY_SECRET"`
	AccessToken       string `env:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `env:"TWITTER_ACCESS_TOKEN_SECRET"`
	BearerToken       string `env:"TWITTER_BEARER_TOKEN"`
}

// Get returns the value for a recognized secret name.
func (c Credentials) Get(name string) (string, bool) {
	switch name {
	case FireworksAPIKey:
		return c.FireworksAPIKey, true
	case TogetherAPIKey:
		return c.TogetherAPIKey, true
	case TwitterAPIKey:
		return c.ConsumerKey, true
	case TwitterAPIKeySecret:
		return c.ConsumerSecret, true
	case TwitterAccessToken:
		return c.AccessToken, true
	case TwitterAccessTokenSecret:
		return c.AccessTokenSecret, true
	case TwitterBearerToken:
		return c.BearerToken, true
	}
	return "", false
}

// Require fails with a *model.ConfigurationError naming the first name that is
// unset, blank or not a recognized secret.
func (c Credentials) Require(names ...string) error {
	for _, name := range names {
		v, ok := c.Get(name)
		if !ok || strings.TrimSpace(v) == "" {
			return &model.ConfigurationError{Var: name}
		}
	}
	return nil
}

// HasOAuth1 reports whether all four user-context secrets are present.
func (c Credentials) HasOAuth1() bool {
	return c.Require(OAuth1Names()...) == nil
}

func OAuth1Names() []string {
	return []string{TwitterAPIKey, TwitterAPIKeySecret, TwitterAccessToken, TwitterAccessTokenSecret}
}

// RequiredCredentials lists the secrets the run described by cfg needs.
func RequiredCredentials(cfg *Config) []string {
	names := []string{FireworksAPIKey}
	if cfg.Ask != "" {
		return names
	}
	if cfg.Image.Enabled {
		names = append(names, TogetherAPIKey)
	}
	switch {
	case !cfg.DryRun:
		names = append(names, OAuth1Names()...)
	case cfg.Source == SourceLive && cfg.Credentials.BearerToken == "":
		// reads fall back to user context when there is no bearer token
		names = append(names, OAuth1Names()...)
	}
	return names
}

// Validate checks the credentials the run needs. Call it before building any client.
func (cfg *Config) Validate() error {
	if err := cfg.Credentials.Require(RequiredCredentials(cfg)...); err != nil {
		return err
	}
	if cfg.Ask != "" {
		return nil
	}
	switch cfg.Source {
	case SourceFixture:
	case SourceLive:
		if cfg.TargetUsername == "" {
			return &model.ConfigurationError{Var: "TARGET_USERNAME"}
		}
	case SourceOEmbed:
		if cfg.OEmbedURL == "" {
			return &model.ConfigurationError{Var: "OEMBED_URL"}
		}
	default:
		return &model.ValidationError{Field: "SOURCE", Reason: "must be live, fixture or oembed, got " + cfg.Source}
	}
	if cfg.Twitter.APIVersion != "2" && cfg.Twitter.APIVersion != "1.1" {
		return &model.ValidationError{Field: "TWITTER_API_VERSION", Reason: "must be 2 or 1.1"}
	}
	return nil
}
