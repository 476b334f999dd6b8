//go:build !windows

package main

import (
	"github.com/k2io/wofffix/internal/logging"
	"github.com/k2io/wofffix/sequencer"
)

func attach() {
	log := logging.Console()
	log.Info("loaded", "fix", fixName, "version", fixVersion)
	sequencer.Attach(sequencer.AttachOptions{Config: configFile, Log: log})
}
