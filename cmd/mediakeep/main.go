package main

import (
	"fmt"
	"log"

	"github.com/mediakeep/mediakeep/internal/config"
	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/server"
)

func main() {
	cfg := config.Get()

	database.Initialize()

	r, err := server.SetupRouter()
	if err != nil {
		log.Fatalf("Failed to set up server: %v", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting mediakeep server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
