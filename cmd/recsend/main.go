// Command recsend streams stdin as TLS application data records over a
// socket, WebSocket, vsock or inherited file descriptor, keyed from a
// pre-shared key. With -listen it accepts such streams and logs a summary of
// the records it sees.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tls-recsend/shared"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := shared.NewLoggerFromEnv("recsend")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Listen {
		err = runSink(ctx, cfg, logger.Logger)
	} else {
		err = runSend(ctx, cfg, logger.WithRemote(cfg.Addr), os.Stdin)
	}
	if err != nil {
		logger.Critical("recsend failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
