package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	lensDir := flag.String("lenses", lens.DefaultDir, "Directory searched for .lens files")
	staticDir := flag.String("static", "static/", "Directory of static files")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *lensDir, *staticDir)

	log.Printf("Polynomial Optics Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
