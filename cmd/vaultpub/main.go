package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"vaultpub/internal/cache"
	"vaultpub/internal/config"
	"vaultpub/internal/export"
	"vaultpub/internal/preview"
	"vaultpub/internal/publish"
)

// BuildVersion is stamped by the release build via
// -ldflags "-X main.BuildVersion=...".
var BuildVersion = ""

func version() string {
	if v := strings.TrimSpace(BuildVersion); v != "" {
		return v
	}
	return "dev"
}

func main() {
	root := &cli.Command{
		Name:  "vaultpub",
		Usage: "Publish an Obsidian-style vault as a static HTML site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the site configuration file",
				Value:   "vaultpub.yaml",
				Sources: cli.EnvVars("VAULTPUB_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("VAULTPUB_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "pretty, text or json",
				Value:   "pretty",
				Sources: cli.EnvVars("VAULTPUB_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "mirror logs into this file at debug level",
				Sources: cli.EnvVars("VAULTPUB_LOG_FILE"),
			},
		},
		Commands: []*cli.Command{
			exportCommand(),
			serveCommand(),
			checkCommand(),
			publishCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		slog.Error("vaultpub failed", "err", err)
		os.Exit(1)
	}
}

// setup wires logging from the global flags and loads the configuration
// file. Every subcommand starts here.
func setup(cmd *cli.Command) (*config.Config, error) {
	if err := initLogging(cmd); err != nil {
		return nil, err
	}
	slog.Info("startup", "version", version())
	cache.SetBuildVersion(BuildVersion)
	return config.Load(cmd.String("config"))
}

func initLogging(cmd *cli.Command) error {
	level := parseLogLevel(cmd.String("log-level"))

	var handler slog.Handler
	format := strings.ToLower(strings.TrimSpace(cmd.String("log-format")))
	switch format {
	case "", "pretty":
		handler = newPrettyHandler(os.Stderr, level)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	if path := cmd.String("log-file"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", path, err)
		}
		// The handle stays open for the life of the process.
		_, _ = fmt.Fprintf(file, "=== vaultpub log start %s ===\n", time.Now().Format(time.RFC3339))
		fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = &teeHandler{handlers: []slog.Handler{handler, fileHandler}}
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render the vault into the output directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "rebuild every page, ignoring cached fingerprints",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			exp, err := export.New(cfg)
			if err != nil {
				return err
			}
			report, err := exp.Run(ctx, export.Options{Force: cmd.Bool("force")})
			if err != nil {
				return err
			}
			warnBroken(report)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the exported site locally, rebuilding on vault changes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			srv, err := preview.New(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Resolve every reference without writing and list the broken ones",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			exp, err := export.New(cfg)
			if err != nil {
				return err
			}
			report, err := exp.Run(ctx, export.Options{DryRun: true})
			if err != nil {
				return err
			}
			for _, b := range report.Broken {
				fmt.Printf("%s: [[%s]]\n", b.Doc, b.Target)
			}
			if n := len(report.Broken); n > 0 {
				return fmt.Errorf("found %d broken references across %d documents", n, report.Pages)
			}
			slog.Info("all references resolve", "documents", report.Pages)
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Export the vault, then commit and push the output directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "commit message, overrides the configured one",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if msg := cmd.String("message"); msg != "" {
				cfg.Publish.Message = msg
			}
			exp, err := export.New(cfg)
			if err != nil {
				return err
			}
			report, err := exp.Run(ctx, export.Options{})
			if err != nil {
				return err
			}
			warnBroken(report)
			res, err := publish.Run(ctx, cfg)
			if err != nil {
				return err
			}
			if !res.Committed {
				slog.Info("site unchanged, nothing to publish")
				return nil
			}
			slog.Info("published",
				"remote", cfg.Publish.Remote,
				"branch", cfg.Publish.Branch,
				"message", res.Message,
			)
			return nil
		},
	}
}

func warnBroken(report *export.Report) {
	for _, b := range report.Broken {
		slog.Warn("broken reference", "doc", b.Doc, "target", b.Target)
	}
}
