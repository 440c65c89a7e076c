// Command parley runs the Parley chat server: the TCP line-protocol
// listener plus the HTTP monitoring and WebSocket bridge server.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/chat"
	"github.com/parleyhq/parley/internal/monitor"
)

func main() {
	cfg := chat.NewConfigFromEnv()

	chatAddr := flag.String("addr", cfg.ChatAddr, "TCP listen address for the chat protocol")
	httpAddr := flag.String("http", cfg.HTTPAddr, "listen address for the monitoring API")
	flag.Parse()
	cfg.ChatAddr = *chatAddr
	cfg.HTTPAddr = *httpAddr

	directory := chat.NewDirectory()
	supervisor := chat.NewSupervisor(cfg, directory)

	if err := supervisor.Start(); err != nil {
		log.Fatalf("Failed to start chat server: %v", err)
	}

	api := monitor.NewAPI(supervisor, cfg.AllowedOrigins)
	httpServer := monitor.NewServer(cfg.HTTPAddr, api.Routes())

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- monitor.Start(httpServer)
	}()

	log.Println("Server running. Press Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-httpErr:
		if err != nil {
			log.Printf("Monitoring server failed: %v", err)
		}
	}

	if err := monitor.Shutdown(httpServer, 10*time.Second); err != nil {
		log.Printf("Monitoring shutdown incomplete: %v", err)
	}
	supervisor.Stop()
}
