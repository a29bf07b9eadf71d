// Command main seeds the configured entity store with demo campus data.
package main

import (
	"context"
	"flag"
	"log"

	"campusconnect/internal/cache"
	"campusconnect/internal/config"
	"campusconnect/internal/database"
	"campusconnect/internal/seed"
	"campusconnect/internal/store"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "Number of posts to create")
	flag.IntVar(&opts.Groups, "groups", opts.Groups, "Number of groups to create")
	flag.IntVar(&opts.Events, "events", opts.Events, "Number of events to create")
	flag.IntVar(&opts.Comments, "comments", opts.Comments, "Number of comments to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var entityStore store.EntityStore
	switch cfg.StoreDriver {
	case "redis":
		cache.InitRedis(cfg.RedisURL)
		client := cache.GetClient()
		if client == nil {
			log.Fatalf("Redis unreachable at %s", cfg.RedisURL)
		}
		entityStore = store.NewRedisStore(client)
	case "gorm":
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		gs := store.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		entityStore = gs
	default:
		log.Fatalf("Seeding requires STORE_DRIVER=redis or gorm, got %q", cfg.StoreDriver)
	}

	factory := seed.NewFactory(entityStore)
	if err := factory.Run(context.Background(), opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done. All seeded accounts use the password %q", opts.Password)
}
