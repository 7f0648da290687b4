// Package bot runs one reply cycle: pick a triggering post, have the persona
// answer it, illustrate the answer and publish.
package bot

import (
	"context"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/completion"
	"github.com/mikequentel/dobby/internal/config"
	"github.com/mikequentel/dobby/internal/image"
	"github.com/mikequentel/dobby/internal/model"
	"github.com/mikequentel/dobby/internal/social"
	"github.com/mikequentel/dobby/internal/source"
)

type State string

const (
	StateAcquire          State = "acquire"
	StateReply            State = "reply"
	StateIllustrate       State = "illustrate"
	StatePublishWithMedia State = "publish-with-media"
	StatePublishFallback  State = "publish-fallback"
	StateDone             State = "done"
)

type Replier interface {
	GenerateReply(ctx context.Context, persona, triggeringText string) (string, error)
}

type Illustrator interface {
	Generate(ctx context.Context, req image.Request) model.Result[*model.GeneratedImage]
}

type MediaPublisher interface {
	PostWithImage(ctx context.Context, text string, img *model.GeneratedImage) (*model.PostResult, error)
}

type Poster interface {
	CreatePost(ctx context.Context, text string, media ...model.MediaHandle) (*model.PostResult, error)
}

// Deps are the collaborators of a run. Illustrator may be nil when images are
// off; MediaPublisher and Poster may be nil in dry-run mode.
type Deps struct {
	Source         source.Source
	Replier        Replier
	Illustrator    Illustrator
	MediaPublisher MediaPublisher
	Poster         Poster
}

// Options is the part of the configuration a run depends on.
type Options struct {
	Owner       string
	Bot         string
	Persona     string // empty = completion.Persona(Owner, Bot)
	ImagePrompt string // text/template source
	Image       image.Request
	Images      bool

	DuplicateTextPost bool
	DryRun            bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Owner:       cfg.OwnerName,
		Bot:         cfg.BotName,
		Persona:     cfg.Persona,
		ImagePrompt: cfg.Image.Prompt,
		Image: image.Request{
			Width:  cfg.Image.Width,
			Height: cfg.Image.Height,
			Steps:  cfg.Image.Steps,
			Count:  cfg.Image.Count,
		},
		Images:            cfg.Image.Enabled,
		DuplicateTextPost: cfg.DuplicateTextPost,
		DryRun:            cfg.DryRun,
	}
}

// promptData is what IMAGE_PROMPT templates can refer to.
type promptData struct {
	Owner string
	Bot   string
	Text  string
	Reply string
}

type Bot struct {
	deps    Deps
	opts    Options
	persona string
	prompt  *template.Template
	log     *zap.SugaredLogger
}

// New checks that deps cover opts and compiles the image prompt template.
func New(deps Deps, opts Options, log *zap.SugaredLogger) (*Bot, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if deps.Source == nil {
		return nil, &model.ValidationError{Field: "source", Reason: "not set"}
	}
	if deps.Replier == nil {
		return nil, &model.ValidationError{Field: "replier", Reason: "not set"}
	}
	if !opts.DryRun && deps.Poster == nil {
		return nil, &model.ValidationError{Field: "poster", Reason: "required unless dry-run"}
	}
	if opts.Images {
		if deps.Illustrator == nil {
			return nil, &model.ValidationError{Field: "illustrator", Reason: "required when images are enabled"}
		}
		if !opts.DryRun && deps.MediaPublisher == nil {
			return nil, &model.ValidationError{Field: "media publisher", Reason: "required when images are enabled"}
		}
	}

	tmpl, err := template.New("image-prompt").Option("missingkey=error").Parse(opts.ImagePrompt)
	if err != nil {
		return nil, &model.ValidationError{Field: "IMAGE_PROMPT", Reason: err.Error()}
	}

	persona := opts.Persona
	if strings.TrimSpace(persona) == "" {
		persona = completion.Persona(opts.Owner, opts.Bot)
	}
	return &Bot{deps: deps, opts: opts, persona: persona, prompt: tmpl, log: log}, nil
}

// Run walks Acquire → Reply → Illustrate → PublishWithMedia →
// PublishFallback → Done once. Step failures end up in the report and never
// stop the walk early, except that nothing is published without a reply.
// The returned error is reserved for fatal problems such as an unreadable
// fixture.
func (b *Bot) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Source: b.deps.Source.Name(), DryRun: b.opts.DryRun}

	// Acquire
	rep.enter(StateAcquire)
	res, err := b.deps.Source.Posts(ctx)
	if err != nil {
		rep.enter(StateDone)
		return rep, errors.Wrapf(err, "acquire from %s", rep.Source)
	}
	if res.Err != nil {
		rep.fail(StateAcquire, res.Err)
	}
	if len(res.Value) == 0 {
		b.log.Infow("No triggering post, nothing to do", "source", rep.Source)
		rep.enter(StateDone)
		return rep, nil
	}
	post := res.Value[0]
	rep.Post = &post
	b.log.Infow("Acquired triggering post", "source", rep.Source, "id", post.ID, "author", post.Author)

	// Reply
	rep.enter(StateReply)
	reply, err := b.deps.Replier.GenerateReply(ctx, b.persona, post.Text)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		b.log.Errorw("Reply generation failed", "error", err)
		rep.fail(StateReply, err)
		rep.enter(StateDone)
		return rep, nil
	}
	rep.Reply = reply
	rep.Text = social.Truncate(reply, social.MaxPostLength)
	if rep.Text != reply {
		b.log.Infow("Reply truncated", "from", social.RuneLen(reply), "to", social.RuneLen(rep.Text))
	}

	// Illustrate
	if b.opts.Images {
		rep.enter(StateIllustrate)
		rep.Image = b.illustrate(ctx, rep, post, reply)
	}

	// PublishWithMedia
	if rep.Image != nil {
		rep.enter(StatePublishWithMedia)
		if b.opts.DryRun {
			b.log.Infow("Dry run, skipping media post", "image", rep.Image.FirstURL())
		} else if pr, err := b.deps.MediaPublisher.PostWithImage(ctx, rep.Text, rep.Image); err != nil {
			b.log.Errorw("Media post failed, falling back to text", "error", err)
			rep.fail(StatePublishWithMedia, err)
		} else {
			rep.MediaPost = pr
		}
	}

	// PublishFallback
	if rep.MediaPost == nil || b.opts.DuplicateTextPost {
		rep.enter(StatePublishFallback)
		if b.opts.DryRun {
			b.log.Infow("Dry run, skipping text post")
		} else if pr, err := b.deps.Poster.CreatePost(ctx, rep.Text); err != nil {
			b.log.Errorw("Text post failed", "error", err)
			rep.fail(StatePublishFallback, err)
		} else {
			b.log.Infow("Posted text", "id", pr.ID)
			rep.TextPost = pr
		}
	}

	rep.enter(StateDone)
	return rep, nil
}

func (b *Bot) illustrate(ctx context.Context, rep *Report, post model.SourcePost, reply string) *model.GeneratedImage {
	var sb strings.Builder
	data := promptData{Owner: b.opts.Owner, Bot: b.opts.Bot, Text: post.Text, Reply: reply}
	if err := b.prompt.Execute(&sb, data); err != nil {
		rep.fail(StateIllustrate, errors.Wrap(err, "render image prompt"))
		return nil
	}
	req := b.opts.Image
	req.Prompt = sb.String()

	res := b.deps.Illustrator.Generate(ctx, req)
	if !res.OK() || res.Value == nil {
		err := res.Err
		if err == nil {
			err = errors.New("no image")
		}
		rep.fail(StateIllustrate, err)
		return nil
	}
	b.log.Infow("Generated image", "url", res.Value.FirstURL())
	return res.Value
}
