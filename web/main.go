package main

import (
	"flag"
	"log"
	"os"

	"github.com/study-game-engines/raytracer-hacker/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "scenes", "Directory of JSON scene configs")
	snapshotDir := flag.String("snapshots", "output", "Directory for saved snapshots")
	flag.Parse()

	webServer := server.NewServer(server.Options{
		Port:        *port,
		ScenesDir:   *scenesDir,
		SnapshotDir: *snapshotDir,
	})

	log.Printf("KD-tree Raytracer Web Server")
	log.Printf("POST http://localhost:%d/api/render to start rendering, GET /api/frame to view", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
