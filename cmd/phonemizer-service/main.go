// main package for the phonemizer-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/phonemizer-service/internal/config"
	"github.com/book-expert/phonemizer-service/internal/espeak"
	"github.com/book-expert/phonemizer-service/internal/objectstore"
	"github.com/book-expert/phonemizer-service/internal/phonemizer"
	"github.com/book-expert/phonemizer-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "phonemizer-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve connects to NATS, builds the phonemizer session, and runs the worker
// until the process receives an interrupt or termination signal.
func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	textStore, err := objectstore.New(jetstreamContext, cfg.NATS.TextObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to create text object store: %w", err)
	}

	phonemesStore, err := objectstore.New(jetstreamContext, cfg.NATS.PhonemesObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to create phonemes object store: %w", err)
	}

	session, err := buildSession(cfg, log)
	if err != nil {
		return err
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.PhonemizeRequestSubject,
		cfg.NATS.PhonemesGeneratedSubject,
		worker.Stores{Text: textStore, Phonemes: phonemesStore},
		session,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.System(
		"Phonemizer service initialized. Listening for jobs on subject: %s",
		cfg.NATS.PhonemizeRequestSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker exited with error: %w", err)
	}

	return nil
}

// buildSession creates the engine bindings and phonemizer session from the
// loaded configuration.
func buildSession(cfg *config.Config, log *logger.Logger) (*phonemizer.Session, error) {
	strategy := phonemizer.CapturedStream
	if cfg.Phonemizer.Strategy == "direct" {
		strategy = phonemizer.DirectCall
	}

	engine := espeak.New(cfg.Phonemizer.DataPath)

	session, err := phonemizer.NewSession(engine, cfg.Phonemizer.DefaultVoice, strategy, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create phonemizer session: %w", err)
	}

	return session, nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
