package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"registro/internal/config"
	"registro/internal/queue"
	"registro/internal/slot"
)

// Notifier consumes registration notifications and presents them. This
// bundled implementation logs; a kiosk display would subscribe the same way.
// Only useful with the redis queue backend — the in-memory queue never
// leaves the api process.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Println("WARNING: QUEUE_BACKEND is not redis; nothing will arrive here")
	}

	redisClient := slot.NewRedis(cfg.RedisAddr, cfg.SlotName)
	q := queue.NewRedisQueue(redisClient.Client(), "registro:notifications")

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for registrations...")
	for msg := range messages {
		if msg.Type != "registered" {
			continue
		}

		var n struct {
			PersonType string `json:"person_type"`
			Name       string `json:"name"`
			Timestamp  string `json:"timestamp"`
		}
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			log.Printf("bad notification payload: %v", err)
			continue
		}
		log.Printf("registered %s: %s at %s", n.PersonType, n.Name, n.Timestamp)
	}

	log.Println("notifier stopped")
}
