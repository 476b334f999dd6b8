//go:build windows

package main

import (
	"log/slog"
	"path/filepath"
	"unsafe"

	"github.com/k2io/wofffix/internal/gate"
	"github.com/k2io/wofffix/internal/image"
	"github.com/k2io/wofffix/internal/logging"
	"github.com/k2io/wofffix/sequencer"
)

// any address inside this library finds its module
var anchor byte

// closed once the load-time gate is open
var gateOpened = make(chan struct{})

func attach() {
	dir := "."
	if self, err := image.Containing(uintptr(unsafe.Pointer(&anchor))); err == nil {
		dir = filepath.Dir(self.Path)
	}

	logPath := filepath.Join(dir, logFile)
	log, _, err := logging.Open(dir, logFile)
	if err != nil {
		log = logging.Console()
		log.Error("log file not opened", slog.String("path", logPath), slog.Any("err", err))
	}

	if host, err := image.Executable(); err == nil {
		logging.Banner(log, fixName, fixVersion, logPath, logging.Module{
			Name:      host.Name,
			Path:      filepath.Dir(host.Path),
			Base:      host.Base,
			Timestamp: host.Timestamp,
		})
	}

	cfg := filepath.Join(dir, configFile)
	log.Info("config file", slog.String("path", cfg))

	gated := earlyGate()
	if !gated {
		log.Warn("load-time gate not armed")
	}
	ready := gate.NewReady()
	go func() {
		ready.Wait()
		releaseGate()
		logGate(log)
		close(gateOpened)
	}()
	sequencer.Attach(sequencer.AttachOptions{Config: cfg, Log: log, Ready: ready, Gated: gated})
}
