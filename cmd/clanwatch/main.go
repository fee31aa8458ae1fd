package main

import (
	"clanwatch/internal/di"
	"clanwatch/internal/structures"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "c", "config.yaml", "path to the config file")
	flag.BoolVar(&flags.DebugMode, "d", false, "debug mode, also logs to the console")
	flag.StringVar(&flags.Mode, "mode", structures.ModeUpdate, "update runs one ingestion, serve runs the HTTP API with periodic updates")
	flag.Parse()

	switch flags.Mode {
	case structures.ModeUpdate:
		os.Exit(runUpdate(flags))
	case structures.ModeServe:
		if _, err := di.InitApp(flags); err != nil {
			fmt.Fprintf(os.Stderr, "clanwatch: %s\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "clanwatch: unknown mode %q\n", flags.Mode)
		os.Exit(2)
	}
}

func runUpdate(flags *structures.CliFlags) int {
	updater, err := di.InitUpdater(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clanwatch: config: %s\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := updater.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clanwatch: update failed: %s\n", err)
		return 1
	}
	fmt.Printf("Updated %s: %d members, %d logs (+%d), %d market items in %s\n",
		report.ClanName, report.Members, report.LogsAfter, report.LogsAfter-report.LogsBefore, report.MarketItems, report.Duration)
	return 0
}
