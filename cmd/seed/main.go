package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/gigboard/config"
	"github.com/oksasatya/gigboard/internal/interface/middleware"
	"github.com/oksasatya/gigboard/pkg/helpers"
)

type demoUser struct {
	email string
	name  string
}

// Seeds a client and a freelancer, opens a session for each and prints
// access tokens for local testing.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL)
	ctx := context.Background()

	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := []demoUser{
		{email: "client@gigboard.local", name: "Demo Client"},
		{email: "freelancer@gigboard.local", name: "Demo Freelancer"},
	}
	for _, u := range users {
		var id string
		err = db.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
			RETURNING id
		`, u.email, hash, u.name).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}

		token, exp, err := jwt.GenerateAccessToken(id)
		if err != nil {
			log.Fatalf("failed to sign token: %v", err)
		}
		key := middleware.SessionKey(id)
		if err := rdb.HSet(ctx, key, "email", u.email, "issued_at", time.Now().UTC().Format(time.RFC3339)).Err(); err != nil {
			log.Fatalf("failed to open session: %v", err)
		}
		_ = rdb.ExpireAt(ctx, key, exp).Err()

		fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", id, u.email, u.name, password)
		fmt.Printf("  access token (expires %s): %s\n", exp.Format(time.RFC3339), token)
	}
}
