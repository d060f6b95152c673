package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Imemario77/instantify/internal/app"
)

func main() {
	addr := flag.String("addr", getEnv("INSTANTIFY_ADDR", ":5050"), "server listen address")
	path := flag.String("path", getEnv("INSTANTIFY_PATH", "/ws"), "websocket path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, app.ServerConfig{Addr: *addr, Path: *path})
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("Instantify server listening on %s%s", handle.Addr(), app.NormalizeWSPath(*path))

	if err := handle.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
