package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/joho/godotenv"

	"citizen-portal/internal/adapters/alert"
	adaptermiddleware "citizen-portal/internal/adapters/http/middleware"
	adapterlogger "citizen-portal/internal/adapters/logger"
	"citizen-portal/internal/application"
	"citizen-portal/internal/infrastructure/auth"
	"citizen-portal/internal/infrastructure/gateway"
	"citizen-portal/internal/infrastructure/live"
	"citizen-portal/internal/infrastructure/state"
	"citizen-portal/internal/interfaces/cli"
	"citizen-portal/internal/ports"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, rest, err := loadConfig(args, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "portal:", err)
		return 2
	}
	logger := adapterlogger.New(adapterlogger.ParseLevel(cfg.LogLevel))
	if cfg.Tracing {
		xray.Configure(xray.Config{LogLevel: "error"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to open state store", "store", cfg.StateStore, "error", err)
		return 1
	}
	session := application.NewSessionController(store, auth.NewDecoder(), nil, logger)
	gw, err := gateway.New(cfg.BaseURL, session, gateway.WithTracing(cfg.Tracing), gateway.WithLogger(logger))
	if err != nil {
		logger.Error(ctx, "configuration error", "error", err)
		return 2
	}
	session.SetProfiles(gw)

	console := alert.NewConsole(os.Stderr).Quiet(cfg.Quiet)
	app := cli.New(cli.Deps{
		Session:  session,
		Gateway:  gw,
		Flows:    application.NewFormFlows(gw, session, application.NewFormValidator(nil), logger),
		Events:   eventSource(cfg, store, logger),
		Store:    store,
		Reporter: application.NewReporter(logger, console),
		Logger:   logger,
		Out:      os.Stdout,
		Debounce: application.DefaultDebounce,
	})

	exec := func(ctx context.Context) error {
		session.Hydrate(ctx)
		return app.Root().Execute(ctx, rest)
	}
	if cfg.Tracing {
		err = adaptermiddleware.WithSegment(ctx, "portal", exec)
	} else {
		err = exec(ctx)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, "portal:", err)
		return 2
	case !cli.Reported(err):
		fmt.Fprintln(os.Stderr, "portal:", err)
	}
	return 1
}

func openStore(ctx context.Context, cfg config) (ports.StateStore, error) {
	if cfg.StateStore == storeDynamo {
		return state.NewDynamoStore(ctx, cfg.Region, cfg.TableName, cfg.Profile)
	}
	return state.NewFileStore(cfg.StateFile), nil
}

// eventSource picks the push transport and always adds the local refresh
// signal so other portal processes on this state store can wake the
// operator panel.
func eventSource(cfg config, store ports.StateStore, logger ports.Logger) ports.EventSource {
	var push ports.EventSource
	switch cfg.Live {
	case live.ModeAMQP:
		push = live.NewAMQP(cfg.AMQPURL, logger)
	case live.ModeNone:
		push = live.None{}
	default:
		push = live.NewSSE(cfg.BaseURL, nil, logger)
	}
	return live.Merge(push, live.NewSignalPoller(store, cfg.SignalInterval, logger))
}
