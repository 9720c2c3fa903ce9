package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Gunvolt24/queue-consumer/config"
	"github.com/Gunvolt24/queue-consumer/internal/app"
	"github.com/Gunvolt24/queue-consumer/internal/consumer"
)

// maxMemoryMB — наибольшее значение --max-memory, переводимое в байты без переполнения.
const maxMemoryMB = math.MaxUint64 >> 20

// Коды завершения процесса.
const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// cliOptions — разобранная командная строка.
type cliOptions struct {
	queue     string
	limits    consumer.Limits
	verbosity int
}

// CLI потребителя очереди: consumer consume <queue> [flags].
func main() {
	_ = godotenv.Load(".env.local")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFault
	}

	a, cleanup, err := app.Bootstrap(ctx, &cfg, app.Options{
		Queue:     opts.queue,
		Limits:    opts.limits,
		Verbosity: opts.verbosity,
	})
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return exitFault
	}
	defer cleanup()

	report, err := a.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Errorf(ctx, "consumer stopped with fault after %d messages: %v", report.Processed, err)
		return exitFault
	}
	return exitOK
}

// parseArgs — "consume <queue>" и флаги лимитов.
func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	fs := pflag.NewFlagSet("consumer", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: consumer consume <queue> [flags]\n\nConsume messages from a queue.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	batchSize := fs.UintP("batch-size", "b", consumer.DefaultBatchSize, "number of messages between flushes")
	limit := fs.UintP("limit", "l", 0, "maximum number of messages to consume (0 = unlimited)")
	maxMemory := fs.Uint64P("max-memory", "m", 0, "memory limit in megabytes (0 = unlimited)")
	maxTime := fs.UintP("max-time", "t", 0, "maximum running time in seconds (0 = unlimited)")
	wait := fs.UintP("wait", "w", uint(consumer.DefaultPollInterval/time.Microsecond), "pause between polls in microseconds")
	verbosity := fs.CountP("verbose", "v", "verbose output (-vv prints full payloads)")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	if len(rest) != 2 || rest[0] != "consume" {
		fs.Usage()
		return cliOptions{}, fmt.Errorf("%w: expected \"consume <queue>\"", errUsage)
	}
	if rest[1] == "" {
		return cliOptions{}, fmt.Errorf("%w: queue name is empty", errUsage)
	}
	if *batchSize == 0 {
		return cliOptions{}, fmt.Errorf("%w: --batch-size must be greater than 0", errUsage)
	}
	if *maxMemory > maxMemoryMB {
		return cliOptions{}, fmt.Errorf("%w: --max-memory must not exceed %d MB", errUsage, uint64(maxMemoryMB))
	}

	return cliOptions{
		queue: rest[1],
		limits: consumer.Limits{
			BatchSize:      *batchSize,
			MessageLimit:   *limit,
			MaxMemoryBytes: *maxMemory << 20,
			MaxDuration:    time.Duration(*maxTime) * time.Second,
			PollInterval:   time.Duration(*wait) * time.Microsecond,
		},
		verbosity: *verbosity,
	}, nil
}
