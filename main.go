package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"boardsync/internal/gateway"
	"boardsync/internal/middleware"
	"boardsync/internal/move"
	"boardsync/internal/room"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := middleware.RateLimitFromEnv()
	registry := room.NewRegistry(config.MaxRooms, config.MaxRoomSize)
	validator := move.NewValidator(config.MaxPathPoints, config.MaxImageBytes)
	ipLimiter := middleware.NewIPRateLimit()

	gw := gateway.New(registry, validator, config, ipLimiter)

	http.HandleFunc("/ws", gw.ServeWS)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"rooms": registry.Count(),
			"users": registry.UserCount(),
		})
	})

	go cleanupLoop(ctx, registry, ipLimiter)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Whiteboard sync server started on :%s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

// cleanupLoop: routine to sweep lingering rooms and stale IP limiters
func cleanupLoop(ctx context.Context, registry *room.Registry, ipLimiter *middleware.IPRateLimit) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Cleanup(time.Hour)
			ipLimiter.Cleanup()
		}
	}
}
