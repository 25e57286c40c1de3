package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/farmlife/internal/config"
	"github.com/zeusync/farmlife/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config overlaying the defaults")
	dumpConfig := flag.String("dump-config", "", "write the effective config to this path and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(2)
	}
	if *dumpConfig != "" {
		if err = cfg.WriteYAML(*dumpConfig); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing config:", err)
			os.Exit(1)
		}
		return
	}

	a, err := injector.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building simulation:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Simulation stopped with error:", err)
		os.Exit(1)
	}
}
