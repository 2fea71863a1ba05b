package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nmeafix/internal/config"
	"nmeafix/internal/web"
)

func main() {
	var configPath, summarize string
	flag.StringVar(&configPath, "config", "./nmeafix.yaml", "Path to YAML config")
	flag.StringVar(&summarize, "summarize", "", "Print a summary of a capture file and exit")
	flag.Parse()

	logs := web.NewLogBuffer(2000)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	if summarize != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("config load failed, summarizing with defaults: %v", err)
			cfg, _ = config.Parse(nil)
		}
		opts, err := decoderOptions(cfg.Decoder)
		if err != nil {
			log.Fatalf("decoder options: %v", err)
		}
		if err := printCaptureSummary(os.Stdout, summarize, opts); err != nil {
			log.Fatalf("summarize failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, logs)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	defer a.close()

	log.Printf("nmeafix starting source=%s dialect=%s processing=%s", cfg.GPS.Source, dialectName(cfg.Decoder), cfg.Decoder.Processing)
	if err := a.run(ctx); err != nil {
		log.Printf("nmeafix stopped: %v", err)
		return
	}
	log.Printf("nmeafix stopping")
}
