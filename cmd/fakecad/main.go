// fakecad answers a drawbridge exchange directory the way the AutoCAD
// companion script does, backed by the in-memory drawing engine. Point a
// session at the same directory with exchange.headless enabled and the full
// file protocol runs without AutoCAD or a Windows host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drafthaus/drawbridge/internal/fakecad"
	"github.com/drafthaus/drawbridge/internal/fileipc"
	"github.com/drafthaus/drawbridge/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fakecad", flag.ContinueOnError)
	dir := fs.String("dir", "", "Exchange directory shared with the drawbridge session (required)")
	prefix := fs.String("prefix", fileipc.DefaultPrefix, "Exchange file prefix")
	poll := fs.Duration("poll", 50*time.Millisecond, "Command scan interval")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: fakecad --dir DIR [--prefix NAME] [--poll DURATION] [--log-level LEVEL]")
		return 1
	}

	log.Setup(*logLevel)

	responder, err := fakecad.New(fakecad.Config{
		ExchangeDir:  *dir,
		Prefix:       *prefix,
		PollInterval: *poll,
	}, fakecad.WithLogger(log.WithComponent("fakecad")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakecad: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := responder.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fakecad: %v\n", err)
		return 1
	}
	return 0
}
