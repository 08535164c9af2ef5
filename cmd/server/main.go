package main

import (
	"log"
	"net/http"
	"os"

	"github.com/retiresim/retiresim-go/internal/httpapi"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := httpapi.NewServer()
	mux := http.NewServeMux()
	server.Register(mux)

	log.Printf("retiresim-go server listening on :%s", port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health    - Health check")
	log.Printf("  POST /simulate  - Run a scenario sweep")

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
