package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/epg-comb/app/api"
	"github.com/lysyi3m/epg-comb/app/cfg"
	"github.com/lysyi3m/epg-comb/app/database"
	"github.com/lysyi3m/epg-comb/app/epg"
	"github.com/lysyi3m/epg-comb/app/source"
	"github.com/lysyi3m/epg-comb/app/store"
	"github.com/lysyi3m/epg-comb/app/tasks"
	"github.com/lysyi3m/epg-comb/app/xmltv"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting EPG Comb",
		"version", appCfg.Version,
		"sources", appCfg.SourcesFile,
		"languages", appCfg.Languages,
		"timezone", appCfg.Timezone)

	engine := epg.NewEngine(
		epg.Config{
			Languages:    appCfg.Languages,
			Location:     appCfg.Location,
			FetchTimeout: appCfg.FetchTimeout,
		},
		source.NewFetcher(&http.Client{}, appCfg.UserAgent),
		source.NewDecompressor(),
	)
	writer := xmltv.NewWriter(appCfg.GeneratorName())
	settings := tasks.MergeSettings{
		SourcesFile:  appCfg.SourcesFile,
		OutputFile:   appCfg.OutputFile,
		FetchTimeout: appCfg.FetchTimeout,
	}

	if !appCfg.Serve {
		os.Exit(runOnce(engine, writer, settings))
	}

	if err := serve(appCfg, engine, writer, settings); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// runOnce merges once and returns the process exit code.
func runOnce(engine *epg.Engine, writer *xmltv.Writer, settings tasks.MergeSettings) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task := tasks.NewMergeTask(tasks.TriggerCLI, settings, engine, writer, nil, nil)
	task.Start()

	if err := task.Execute(ctx); err != nil {
		if task.Report != nil {
			fmt.Fprint(os.Stderr, task.Report.Summary())
		}
		slog.Error("Merge failed", "error", err)
		if tasks.IsNoUsableSources(err) {
			return 2
		}
		return 1
	}

	fmt.Print(task.Report.Summary())
	return 0
}

func serve(appCfg *cfg.Cfg, engine *epg.Engine, writer *xmltv.Writer, settings tasks.MergeSettings) error {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	runRepo := database.NewRunRepository(db)
	guideStore := store.NewGuideStore()

	scheduler := tasks.NewScheduler(func(trigger string) tasks.TaskInterface {
		return tasks.NewMergeTask(trigger, settings, engine, writer, guideStore, runRepo)
	}, appCfg.MergeInterval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(guideStore, runRepo, scheduler, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "merge_interval", appCfg.MergeInterval.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("EPG Comb shutdown complete")

	return serveErr
}
