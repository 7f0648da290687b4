package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/bot"
	"github.com/mikequentel/dobby/internal/completion"
	"github.com/mikequentel/dobby/internal/config"
	"github.com/mikequentel/dobby/internal/image"
	"github.com/mikequentel/dobby/internal/logging"
	"github.com/mikequentel/dobby/internal/media"
	"github.com/mikequentel/dobby/internal/social"
	"github.com/mikequentel/dobby/internal/source"
)

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	must(err)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	// --- Config (.env, env, flags) ---
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	sugar, sync, err := logging.New(cfg.DebugMode)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer sync()

	// Missing secrets stop the run here, before any client exists.
	if err := cfg.Validate(); err != nil {
		sugar.Errorw("Invalid configuration", "error", err)
		return err
	}

	completer := completion.New(cfg.Completion, cfg.Credentials.FireworksAPIKey, sugar)

	if cfg.Ask != "" {
		return ask(ctx, completer, cfg.Ask, out)
	}

	// --- X/Twitter client ---
	var sc *social.Client
	if !cfg.DryRun || cfg.Source == config.SourceLive {
		sc, err = social.New(ctx, cfg.Credentials,
			social.WithAPIVersion(cfg.Twitter.APIVersion),
			social.WithLogger(sugar),
		)
		if err != nil {
			return err
		}
		if cfg.Twitter.VerifyCredentials && sc.CanWrite() {
			me, err := sc.Verify(ctx)
			if err != nil {
				return err
			}
			sugar.Infow("Credentials verified", "username", me.Username, "id", me.ID)
		}
	}

	src, err := newSource(cfg, sc, sugar)
	if err != nil {
		return err
	}

	deps := bot.Deps{Source: src, Replier: completer}
	if cfg.Image.Enabled {
		deps.Illustrator = image.New(cfg.Image, cfg.Credentials.TogetherAPIKey, nil, sugar)
	}
	if !cfg.DryRun {
		deps.Poster = sc
		deps.MediaPublisher = media.NewPublisher(sc, nil, cfg.MediaDir, sugar)
	}

	b, err := bot.New(deps, bot.OptionsFromConfig(cfg), sugar)
	if err != nil {
		return err
	}
	rep, err := b.Run(ctx)
	if rep != nil {
		rep.Print(out)
	}
	if err != nil {
		return err
	}
	if !cfg.DryRun && rep.Post != nil && !rep.Posted() {
		return errors.New("nothing was posted")
	}
	return nil
}

func newSource(cfg *config.Config, sc *social.Client, log *zap.SugaredLogger) (source.Source, error) {
	switch cfg.Source {
	case config.SourceLive:
		return source.NewLive(sc, cfg.TargetUsername, social.FetchQuery{
			MaxCount:        cfg.MaxPosts,
			ExcludeReplies:  cfg.ExcludeReplies,
			IncludeRetweets: cfg.IncludeRetweets,
		}), nil
	case config.SourceOEmbed:
		return source.NewOEmbed(cfg.OEmbedURL, "", nil, log), nil
	case config.SourceFixture:
		return source.NewFixture(cfg.FixtureDB), nil
	}
	return nil, errors.Errorf("unknown source %q", cfg.Source)
}

// ask runs one tool-mode exchange. The tool itself is never executed; the
// requested call is printed for the operator.
func ask(ctx context.Context, c *completion.Client, question string, out io.Writer) error {
	answer, err := c.Ask(ctx, completion.CityPopulation, question)
	if err != nil {
		return err
	}
	inv, ok := completion.ParseInvocation(answer)
	if !ok {
		fmt.Fprintln(out, answer)
		return nil
	}

	var args completion.CityPopulationArgs
	if err := inv.Decode(&args); err != nil {
		return errors.Wrapf(err, "decode %s arguments", inv.Name)
	}
	fmt.Fprintf(out, "Tool call requested: %s(city_name=%q)\n", inv.Name, args.CityName)
	return nil
}
