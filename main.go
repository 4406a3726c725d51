package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/habedi/smoke/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvDebug enables debug logging to stderr when set to anything but "", "false" or "0".
const EnvDebug = "SMOKE_DEBUG"

func main() {
	configureLogLevelFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, cancel, func(msg string) {
		log.Warn().Msg(msg)
	}, os.Exit)

	cmd.Execute(ctx)
}

// configureLogLevelFromEnv sets the global log level from SMOKE_DEBUG.
func configureLogLevelFromEnv() {
	switch os.Getenv(EnvDebug) {
	case "", "false", "0":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt cancels the running command on the first interrupt and exits on the second.
func handleInterrupt(stopChan chan os.Signal, cancel context.CancelFunc, warn func(string), exit func(int)) {
	<-stopChan
	warn("Interrupt signal received. Stopping...")
	cancel()
	<-stopChan
	warn("Interrupt signal received again. Exiting...")
	exit(1)
}
