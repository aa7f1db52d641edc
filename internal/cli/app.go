package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/client"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/store"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	databaseFile = "wellness.db"
)

const usage = `Usage: wellness [flags] <command> [args]

Commands:
  plan   --age N --weight KG --height CM --goal GOAL    request a diet plan
  chat                                                  talk to the wellness assistant
  todo   [list | add TEXT | toggle N | remove N | reset] manage the local to-do list

Flags:
`

// IO groups the terminal streams of one run.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run разбирает аргументы, загружает конфигурацию и выполняет команду.
// Возвращает код завершения процесса.
func Run(ctx context.Context, args []string, streams IO) int {
	fs := pflag.NewFlagSet("wellness", pflag.ContinueOnError)
	fs.SetOutput(streams.Err)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprint(streams.Err, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", DefaultConfigPath(), "path to the YAML config file")
	fs.String("server", "", "wellness server base URL")
	fs.String("data-dir", "", "directory for the local to-do database")
	fs.Duration("timeout", 0, "request timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := LoadConfig(*configPath, fs)
	if err != nil {
		fmt.Fprintln(streams.Err, errorStyle.Render(err.Error()))
		return exitError
	}

	logger := slog.New(slog.NewTextHandler(streams.Err, &slog.HandlerOptions{Level: slog.LevelWarn}))
	api := client.New(cfg.ServerURL, cfg.Timeout)

	switch rest[0] {
	case "plan":
		return runPlan(ctx, api, rest[1:], streams)
	case "chat":
		return runChat(ctx, api, streams)
	case "todo":
		s, err := openStore(cfg.DataDir)
		if err != nil {
			fmt.Fprintln(streams.Err, errorStyle.Render(err.Error()))
			return exitError
		}
		defer s.Close()
		return runTodo(ctx, s, rest[1:], streams, logger)
	case "help":
		fs.Usage()
		return exitOK
	default:
		fmt.Fprintf(streams.Err, "unknown command %q\n", rest[0])
		fs.Usage()
		return exitUsage
	}
}

func openStore(dataDir string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	return store.NewSQLiteStore(filepath.Join(dataDir, databaseFile))
}
