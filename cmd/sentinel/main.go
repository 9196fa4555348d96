package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/logger"
	"sentinel/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	logger.Init(cfg.LogLevel)

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("initializing server: %v", err)
	}

	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Printf("server exited: %v", err)
			cancel()
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Println("shutting down")
		cancel()
	case <-ctx.Done():
	}

	// give graceful shutdown some time
	time.Sleep(500 * time.Millisecond)
	log.Println("exited")
}
