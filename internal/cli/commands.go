package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"playdash/internal/calendar"
	"playdash/internal/config"
	"playdash/internal/core"
	apphttp "playdash/internal/http"
	"playdash/internal/log"
	"playdash/internal/storage"
)

var (
	version = "dev"
	commit  = "unknown"
)

const shutdownTimeout = 30 * time.Second

// runtime carries what PersistentPreRunE prepared for the subcommands.
type runtime struct {
	logLevel string
	logger   *log.Logger
	cfg      *config.Config
	now      func() time.Time
}

// NewRootCommand builds the playdash command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{now: time.Now}

	root := &cobra.Command{
		Use:   "playdash",
		Short: "Game play history dashboard",
		Long: `Serve and inspect a game play history dashboard.

Play data is read from the upstream history API (or a fixture directory),
normalized, and cached so the dashboard opens instantly.

Quick Start:
  playdash serve                 # Run the JSON API
  playdash summary               # Overview, period and monthly stats
  playdash calendar 2024-03      # Month grid with daily intensity
  playdash day 2024-03-10        # Per-title breakdown of one day`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			LoadEnvFile()
			level := rt.logLevel
			if level == "" {
				level = config.Load().LogLevel
			}
			lcfg := log.DefaultConfig()
			lcfg.Level = log.ParseLevel(level)
			lcfg.Output = cmd.ErrOrStderr()
			rt.logger = log.New(lcfg)

			cfg, err := LoadAndValidateConfig(rt.logger)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newServeCommand(rt),
		newRefreshCommand(rt),
		newSummaryCommand(rt),
		newCalendarCommand(rt),
		newDayCommand(rt),
		newGameCommand(rt),
		newRunsCommand(rt),
	)
	return root
}

// withApp bootstraps an app rendering to the command's output and closes it
// when fn returns.
func (rt *runtime) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := Bootstrap(ctx, rt.cfg, rt.logger, AppOptions{
		Presenter: NewTerminalPresenter(cmd.OutOrStdout(), rt.now),
		Now:       rt.now,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, app)
}

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rt.logger
			app, err := Bootstrap(context.Background(), rt.cfg, logger, AppOptions{PublishRefresh: true})
			if err != nil {
				return err
			}

			srv := apphttp.NewServer(apphttp.Options{
				Addr:             ":" + rt.cfg.Port,
				Dashboard:        app.Dashboard,
				Runs:             app.Runs,
				RefreshPerMinute: rt.cfg.RefreshPerMinute,
				Logger:           logger,
			})

			ctx, done := GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("Server shutdown error", log.FieldError, err.Error())
				}
				if err := app.Close(); err != nil {
					logger.Error("Cleanup failed", log.FieldError, err.Error())
				}
			})

			// Warm the dataset so the first page view is served from memory.
			go func() {
				if _, err := app.Dashboard.Load(ctx, false); err != nil {
					logger.Warn("Initial dataset load failed", log.FieldError, err.Error())
				}
			}()

			logger.Info("Starting playdash server",
				"port", rt.cfg.Port,
				log.FieldBackend, rt.cfg.CacheBackend,
				"source", rt.cfg.DataSource)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				_ = app.Close()
				return fmt.Errorf("server error: %w", err)
			}

			WaitForShutdown(ctx, done)
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

func newRefreshCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the dataset from upstream, bypassing the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Dashboard.Load(ctx, true)
				return err
			})
		},
	}
}

func newSummaryCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the overview, period stats and monthly playtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				if _, err := app.Dashboard.Load(ctx, false); err != nil {
					return err
				}
				// Secondary panels report their own failures.
				_, _ = app.Dashboard.PeriodStats(ctx)
				_, _ = app.Dashboard.Monthly(ctx)
				return nil
			})
		},
	}
}

func newCalendarCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show a month of daily playtime",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := calendar.MonthOf(core.DateOf(rt.now()))
			if len(args) == 1 {
				m, err := calendar.ParseMonth(args[0])
				if err != nil {
					return err
				}
				month = m
			}
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Dashboard.Calendar(ctx, month)
				return err
			})
		},
	}
}

func newDayCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Show the per-title breakdown of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := core.ParseDate(args[0])
			if err != nil {
				return err
			}
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Dashboard.SelectDay(ctx, date)
				return err
			})
		},
	}
}

func newGameCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "game TITLE_ID",
		Short: "Show the daily playtime of one title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				_, err := app.Dashboard.GameTimeline(ctx, args[0])
				return err
			})
		},
	}
}

func newRunsCommand(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent refresh runs (sqlite backend only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, app *App) error {
				if app.Runs == nil {
					return fmt.Errorf("refresh runs are only recorded by the sqlite backend")
				}
				runs, err := app.Runs.RecentRefreshes(ctx, limit)
				if err != nil {
					return err
				}
				return writeRuns(cmd.OutOrStdout(), runs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func writeRuns(out io.Writer, runs []storage.RefreshRun) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tREASON\tOUTCOME\tGAMES\tDAYS\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Reason, r.Outcome, r.Games, r.Days, r.Error)
	}
	return w.Flush()
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
