package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"pkg.jsn.cam/forge/internal/config"
	"pkg.jsn.cam/forge/internal/fixtures"
	"pkg.jsn.cam/forge/internal/logging"
	"pkg.jsn.cam/forge/internal/runner"
	"pkg.jsn.cam/forge/pkg/forge"
	"pkg.jsn.cam/forge/pkg/metrics"
)

const name = "forge"

// overridden during build with ldflags
var version = "dev"

// app holds state shared by every command for one invocation.
type app struct {
	stdout   io.Writer
	logger   *slog.Logger
	registry *prom.Registry
	recorder forge.Recorder
}

func newApp() *cli.Command {
	return (&app{stdout: os.Stdout}).command()
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Generate and seed test fixtures",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLevel),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (json, text)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write Prometheus metrics to this file on exit",
				Sources: cli.EnvVars("FORGE_METRICS_FILE"),
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.listCmd(),
			a.generateCmd(),
			a.seedCmd(),
			a.runCmd(),
			a.initCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	a.logger = logging.Setup(cmd.String("log-level"), cmd.String("log-format"))
	a.recorder = forge.NoopRecorder{}
	if cmd.String("metrics-file") != "" {
		a.registry = prom.NewRegistry()
		a.recorder = metrics.NewPrometheusRecorder(a.registry)
	}
	return ctx, nil
}

func (a *app) after(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("metrics-file")
	if path == "" || a.registry == nil {
		return nil
	}
	return metrics.WriteTextfile(path, a.registry)
}

func (a *app) runner() *runner.Runner {
	return &runner.Runner{Logger: a.logger, Recorder: a.recorder, Stdout: a.stdout}
}

// fixtureFlags are shared by generate and seed. Flags hold parsed state, so
// every command gets fresh instances.
func fixtureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "fixture",
			Aliases:  []string{"f"},
			Usage:    "fixture name (see list)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of instances (0 uses the fixture default)",
		},
		&cli.Uint64Flag{
			Name:    "seed",
			Usage:   "seed for reproducible output (0 is random)",
			Sources: cli.EnvVars("FORGE_SEED"),
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "depth limit for self-referential fixtures",
			Value: config.DefaultMaxDepth,
		},
	}
}

func (a *app) listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List available fixtures",
		Action: func(_ context.Context, _ *cli.Command) error {
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDEFAULT\tDESCRIPTION")
			for _, n := range fixtures.List() {
				f, err := fixtures.Get(n, fixtures.Options{})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", f.Name(), f.DefaultCount(), f.Description())
			}
			return w.Flush()
		},
	}
}

func (a *app) generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate fixtures and write them as JSON or YAML",
		Flags: append(fixtureFlags(),
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (json, yaml)",
				Value: config.DefaultFormat,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file, - for stdout",
				Value:   config.DefaultOutput,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			job := config.Job{
				Name:     cmd.String("fixture"),
				Fixture:  cmd.String("fixture"),
				Count:    int(cmd.Int("count")),
				MaxDepth: int(cmd.Int("max-depth")),
				Format:   cmd.String("format"),
				Output:   cmd.String("output"),
			}
			_, err := a.runner().RunJob(ctx, job, cmd.Uint64("seed"), runner.NewTargets())
			return err
		},
	}
}

func (a *app) seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Generate fixtures and persist them into a store",
		Flags: append(fixtureFlags(),
			&cli.StringFlag{
				Name:  "store",
				Usage: "store kind (memory, bbolt, sqlite)",
				Value: config.StoreSQLite,
			},
			&cli.StringFlag{
				Name:    "path",
				Usage:   "database file for bbolt and sqlite stores",
				Sources: cli.EnvVars("FORGE_DB"),
				Value:   "fixtures.db",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			job := config.Job{
				Name:     cmd.String("fixture"),
				Fixture:  cmd.String("fixture"),
				Count:    int(cmd.Int("count")),
				MaxDepth: int(cmd.Int("max-depth")),
				Store:    cmd.String("store"),
				Path:     cmd.String("path"),
			}
			targets := runner.NewTargets()
			defer targets.Close()

			res, err := a.runner().RunJob(ctx, job, cmd.Uint64("seed"), targets)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "seeded %d %s into %s\n", res.Count, res.Fixture, res.Store)
			return nil
		},
	}
}

func (a *app) runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run every job in a run file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "run file",
				Sources: cli.EnvVars("FORGE_CONFIG"),
				Value:   "forge.yaml",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "rerun whenever the run file changes",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "print a JSON summary of finished jobs",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			r := a.runner()
			once := func(ctx context.Context) error {
				cfg, err := config.Load(path)
				if err != nil {
					return err
				}
				results, err := r.Run(ctx, cfg)
				if err != nil {
					return err
				}
				if cmd.Bool("summary") {
					enc := json.NewEncoder(os.Stderr)
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}
				return nil
			}
			err := once(ctx)
			if !cmd.Bool("watch") {
				return err
			}
			if err != nil {
				a.logger.Error("run failed", "error", err)
			}
			return r.Watch(ctx, path, runner.DefaultDebounce, once)
		},
	}
}

func (a *app) initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example run file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "run file to create",
				Value: "forge.yaml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite an existing file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if err := config.Init(path, cmd.Bool("force")); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
			return nil
		},
	}
}
