package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], cli.IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	stop()
	os.Exit(code)
}
