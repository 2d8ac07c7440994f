package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"

	"github.com/Tyrowin/roomchat/internal/app"
	"github.com/Tyrowin/roomchat/internal/server"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Room chat server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	var (
		envFile    string
		port       string
		logLevel   string
		workers    int
		maxRetries int
	)
	flagSet := pflag.NewFlagSet("roomchat", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")
	flagSet.StringVar(&port, "port", "", "listen address, overrides SERVER_PORT")
	flagSet.StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR, overrides LOG_LEVEL")
	flagSet.IntVar(&workers, "broker-workers", 0, "delivery workers, overrides BROKER_WORKERS")
	flagSet.IntVar(&maxRetries, "broker-max-retries", -1, "delivery retries per message, overrides BROKER_MAX_RETRIES")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}

	cfg, err := server.LoadConfig(envFile)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("broker-workers") {
		cfg.Broker.Workers = workers
	}
	if flagSet.Changed("broker-max-retries") {
		cfg.Broker.MaxRetries = maxRetries
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)

	chat, err := app.New(cfg, logger)
	if err != nil {
		return exitConfig, err
	}
	if err := chat.Start(context.Background()); err != nil {
		return exitRuntime, err
	}

	httpServer := server.CreateServer(cfg.Port, chat.Handler())
	serveErr := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, logger); err != nil {
			serveErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"chat-server": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return errors.Join(
					server.ShutdownServer(ctx, httpServer, logger),
					chat.Shutdown(ctx),
				)
			},
		},
	)

	select {
	case exitCode := <-wait:
		logger.Info("Server exited", "code", exitCode)
		return exitCode, nil
	case err := <-serveErr:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = chat.Shutdown(ctx)
		return exitRuntime, fmt.Errorf("http server: %w", err)
	}
}
