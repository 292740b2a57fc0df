package main

import (
	"log"

	"github.com/victorvelazquez/dev-orchestrator/orchd/server"
)

func main() {
	serverInstance := server.New()
	if err := serverInstance.Start(); err != nil {
		log.Fatal("[Orchestrator] Failed to start server: ", err)
	}
}
