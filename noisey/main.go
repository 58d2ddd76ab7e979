package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/noisey/pkg/config"
	"github.com/itohio/noisey/pkg/logger"
)

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		guiFlag      = flag.Bool("gui", false, "Show the ring in a window")
		mockFlag     = flag.Bool("mock", false, "Use the simulated analog source")
		portFlag     = flag.String("p", "", "Serial port of the analog source (e.g., COM3 or /dev/ttyACM0)")
		sourceFlag   = flag.String("source", "", "Analog source override: mock, serial or mic")
		ledFlag      = flag.String("led", "", "LED driver override: terminal, serial or none")
		serverFlag   = flag.String("server", "", "Collector base URL override")
		logLevelFlag = flag.String("log", "", "Log level override: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *sourceFlag != "" {
		cfg.Source.Kind = *sourceFlag
	}
	if *mockFlag {
		cfg.Source.Kind = "mock"
	}
	if *portFlag != "" {
		cfg.Source.Port = *portFlag
	}
	if *ledFlag != "" {
		cfg.LED.Kind = *ledFlag
	}
	if *serverFlag != "" {
		cfg.Server.URL = *serverFlag
	}
	if *logLevelFlag != "" {
		cfg.Log.Level = *logLevelFlag
	}

	log, closer, err := logger.Open(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if *guiFlag || cfg.LED.Kind == "gui" {
		runGUI(cfg, *configFlag, log)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, cfg, log, nil, nil)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		closer.Close()
		os.Exit(1)
	}
	defer rt.Close()

	if err := rt.run(ctx); err != nil {
		log.Error().Err(err).Msg("stopped")
	}
}
