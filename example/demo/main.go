package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MegaGrindStone/go-mcp-pool/servers/demo"
)

func main() {
	cfg, err := demo.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	var opts []demo.Option
	if cfg.APIKey != "" {
		opts = append(opts, demo.WithChatCompleter(demo.NewOpenAICompleter(cfg)))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           demo.NewServer(opts...),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		fmt.Printf("Server starting on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for the server to start
	time.Sleep(time.Second)

	if err := runClient(fmt.Sprintf("http://%s", cfg.Addr)); err != nil {
		fmt.Printf("Client error: %v\n", err)
	}

	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v", err)
		return
	}

	fmt.Println("Server exited gracefully")
}
