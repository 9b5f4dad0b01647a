package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tiltpaddle/internal/config"
	"tiltpaddle/internal/web"
)

func main() {
	var configPath string
	var logPath string
	flag.StringVar(&configPath, "config", "./tiltpaddle.yaml", "Path to YAML config")
	flag.StringVar(&logPath, "log", "", "Write logs to this file instead of stderr")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	var out io.Writer = os.Stderr
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("log open failed: %v", err)
		}
		defer f.Close()
		out = f
	} else if cfg.Display.Backend == "terminal" {
		// The terminal owns the screen; stderr would scribble over it.
		log.Printf("terminal display active, logging to stderr disabled (use -log or web)")
		out = io.Discard
	}
	var logs *web.LogBuffer
	if cfg.Web.Enable {
		logs = web.NewLogBuffer(cfg.Web.LogLines)
		out = io.MultiWriter(out, logs)
	}
	log.SetOutput(out)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := newLiveRuntime(ctx, cfg, logs)
	if err != nil {
		log.Fatalf("bring-up failed: %v", err)
	}
	defer r.Close()

	log.Printf("tiltpaddle starting sensor=%s display=%s law=%s command=%s",
		cfg.Sensor.Source, cfg.Display.Backend, cfg.Control.Law, cfg.Command.Source)
	if err := r.Run(ctx); err != nil {
		log.Printf("run: %v", err)
	}
	log.Printf("tiltpaddle stopping")
}
