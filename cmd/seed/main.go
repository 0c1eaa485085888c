package main

import (
	"fmt"
	"os"

	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/config"
	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/logger"
)

// Seeds the database and prints a bearer token per player for manual testing.
func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	users, err := db.SeedTestData(database)
	if err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	authMgr := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	for _, u := range users {
		token, err := authMgr.Issue(u.ID)
		if err != nil {
			logger.Error("failed to issue token", "user", u.ID, "err", err)
			os.Exit(1)
		}
		logger.Debug("issued token", "user", u.ID, "ttl", cfg.Auth.TokenTTL)
		fmt.Printf("%-10s id=%-3d Bearer %s\n", u.Username, u.ID, token)
	}

	logger.Info("seeding completed", "users", len(users))
}
