package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Imemario77/instantify/internal/app"
)

func main() {
	defaultServer := envOrDefault("INSTANTIFY_SERVER", "ws://localhost:5050/ws")
	defaultUser := envOrDefault("INSTANTIFY_USER", "")

	serverURL := flag.String("server", defaultServer, "WebSocket URL (e.g., ws://localhost:5050/ws)")
	username := flag.String("user", defaultUser, "default username for the login prompts")
	flag.Parse()

	args := flag.Args()
	var roomID string
	if len(args) >= 1 {
		roomID = args[0]
	}

	cfg := app.ClientConfig{
		ServerURL: *serverURL,
		RoomID:    roomID,
		Username:  *username,
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
