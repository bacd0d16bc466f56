// Command feature records the daily featured project. It is meant to run
// once a day from an external scheduler such as cron.
//
// Usage:
//
//	feature                          feature the top unfeatured project today
//	feature -project <id>            feature a specific approved project today
//	feature -project <id> -date D    feature it on D (YYYY-MM-DD)
//
// It reads the same environment as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/config"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/server"
	"github.com/sakif/ysws-hunt/internal/service"
)

const runTimeout = time.Minute

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("feature", flag.ContinueOnError)
	projectID := fs.String("project", "", "feature this project instead of the top-voted candidate")
	date := fs.String("date", "", "calendar date to feature (YYYY-MM-DD, default today in UTC); requires -project")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *date != "" && *projectID == "" {
		fmt.Fprintln(os.Stderr, "feature: -date requires -project")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("opening store", slog.String("error", err.Error()))
		return 1
	}
	defer store.Close()

	projects := service.NewProjectService(store, logger)

	var featured *model.Project
	if *projectID != "" {
		featured, err = projects.FeatureProject(ctx, *projectID, *date)
	} else {
		featured, err = projects.FeatureToday(ctx)
	}

	switch {
	case err == nil:
		logger.Info("feature recorded",
			slog.String("projectID", featured.ID),
			slog.String("title", featured.Title),
		)
		return 0
	case *projectID == "" && errors.Is(err, apperror.ErrNotFound):
		logger.Info("no eligible project to feature", slog.String("date", projects.Today()))
		return 0
	default:
		logger.Error("featuring project", slog.String("error", err.Error()))
		return 1
	}
}
