package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imposter-project/assetscheme/internal/adapter"
	"github.com/imposter-project/assetscheme/internal/adapter/cdphost"
	"github.com/imposter-project/assetscheme/internal/adapter/httpserver"
	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	appConfig, err := config.LoadAppConfig()
	if err != nil {
		return err
	}
	logger.Configure(appConfig.LogLevel, os.Stdout)

	var configDirArg string
	if len(os.Args) > 1 {
		configDirArg = os.Args[1]
	}

	mode, err := adapter.ParseMode(appConfig.Mode)
	if err != nil {
		return err
	}

	rt, err := adapter.Initialise(appConfig, configDirArg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := rt.WatchConfig(ctx); err != nil {
			logger.Errorf("config watcher stopped: %v", err)
		}
	}()

	var host adapter.Adapter
	switch mode {
	case adapter.ModeCDP:
		if host, err = cdphost.NewHost(rt); err != nil {
			return err
		}
	default:
		host = httpserver.NewServer(rt)
	}
	logger.Infof("starting %s host", mode)
	return host.Start(ctx)
}
