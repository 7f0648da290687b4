package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikequentel/dobby/internal/model"
)

func setAllCredentials(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		FireworksAPIKey, TogetherAPIKey,
		TwitterAPIKey, TwitterAPIKeySecret, TwitterAccessToken, TwitterAccessTokenSecret, TwitterBearerToken,
	} {
		t.Setenv(name, "secret-"+name)
	}
}

// ===================== Load =====================

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFixture, cfg.Source)
	assert.Equal(t, 10, cfg.MaxPosts)
	assert.Equal(t, "2", cfg.Twitter.APIVersion)
	assert.True(t, cfg.Image.Enabled)
	assert.False(t, cfg.DuplicateTextPost)
	assert.Less(t, cfg.Completion.Temperature, 0.0)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	setAllCredentials(t)
	t.Setenv("SOURCE", "LIVE")
	t.Setenv("TARGET_USERNAME", "@elonmusk")
	t.Setenv("MAX_POSTS", "25")
	t.Setenv("IMAGE_WIDTH", "512")

	cfg, err := Load([]string{"-max-posts", "5", "-dry-run"})
	require.NoError(t, err)
	assert.Equal(t, SourceLive, cfg.Source)
	assert.Equal(t, "elonmusk", cfg.TargetUsername)
	assert.Equal(t, 5, cfg.MaxPosts)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 512, cfg.Image.Width)
	assert.Equal(t, "secret-TWITTER_API_KEY", cfg.Credentials.ConsumerKey)
	assert.Equal(t, "secret-TWITTER_BEARER_TOKEN", cfg.Credentials.BearerToken)
}

func TestLoad_BadFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load([]string{"-no-such-flag"})
	assert.Error(t, err)
}

// ===================== Credentials =====================

func TestRequire_NamesMissingVariable(t *testing.T) {
	t.Chdir(t.TempDir())
	setAllCredentials(t)
	t.Setenv(FireworksAPIKey, "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	var ce *model.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, FireworksAPIKey, ce.Var)
	assert.Contains(t, err.Error(), "FIREWORKS_API_KEY")
}

func TestRequire_BlankIsMissing(t *testing.T) {
	c := Credentials{FireworksAPIKey: "   "}
	err := c.Require(FireworksAPIKey)
	var ce *model.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, FireworksAPIKey, ce.Var)
}

func TestRequire_UnknownName(t *testing.T) {
	err := Credentials{}.Require("NOT_A_SECRET")
	var ce *model.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "NOT_A_SECRET", ce.Var)
}

func TestRequiredCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "posting with image",
			mutate: func(*Config) {},
			want: []string{FireworksAPIKey, TogetherAPIKey,
				TwitterAPIKey, TwitterAPIKeySecret, TwitterAccessToken, TwitterAccessTokenSecret},
		},
		{
			name:   "dry run without image",
			mutate: func(c *Config) { c.DryRun = true; c.Image.Enabled = false },
			want:   []string{FireworksAPIKey},
		},
		{
			name: "dry run live read with bearer",
			mutate: func(c *Config) {
				c.DryRun = true
				c.Image.Enabled = false
				c.Source = SourceLive
				c.Credentials.BearerToken = "b"
			},
			want: []string{FireworksAPIKey},
		},
		{
			name: "dry run live read without bearer",
			mutate: func(c *Config) {
				c.DryRun = true
				c.Image.Enabled = false
				c.Source = SourceLive
			},
			want: []string{FireworksAPIKey,
				TwitterAPIKey, TwitterAPIKeySecret, TwitterAccessToken, TwitterAccessTokenSecret},
		},
		{
			name:   "tool mode",
			mutate: func(c *Config) { c.Ask = "How many people live in Lyon?" },
			want:   []string{FireworksAPIKey},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Equal(t, tt.want, RequiredCredentials(cfg))
		})
	}
}

func TestValidate_Source(t *testing.T) {
	cfg := Defaults()
	cfg.DryRun = true
	cfg.Image.Enabled = false
	cfg.Credentials.FireworksAPIKey = "k"
	cfg.Credentials.BearerToken = "b"

	require.NoError(t, cfg.Validate())

	cfg.Source = SourceLive
	var ce *model.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &ce))
	assert.Equal(t, "TARGET_USERNAME", ce.Var)

	cfg.TargetUsername = "elonmusk"
	require.NoError(t, cfg.Validate())

	cfg.Source = SourceOEmbed
	require.True(t, errors.As(cfg.Validate(), &ce))
	assert.Equal(t, "OEMBED_URL", ce.Var)

	cfg.Source = "carrier-pigeon"
	var ve *model.ValidationError
	require.True(t, errors.As(cfg.Validate(), &ve))

	cfg.Source = SourceFixture
	cfg.Twitter.APIVersion = "3"
	require.True(t, errors.As(cfg.Validate(), &ve))
	assert.Equal(t, "TWITTER_API_VERSION", ve.Field)
}

func TestHasOAuth1(t *testing.T) {
	c := Credentials{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c"}
	assert.False(t, c.HasOAuth1())
	c.AccessTokenSecret = "d"
	assert.True(t, c.HasOAuth1())
}
