package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"portfolio-assistant-be/internal/bootstrap"
	"portfolio-assistant-be/internal/config"
	"portfolio-assistant-be/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	// 3. Start Background Services
	container.Refresher.Start(context.Background())

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server, shut down cleanly on SIGINT/SIGTERM
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
