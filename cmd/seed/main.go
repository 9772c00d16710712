// seed inserts development sample data for local testing: go run ./cmd/seed.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	addressdomain "account-service/internal/address/domain"
	addressrepo "account-service/internal/address/repository"
	"account-service/internal/config"
	"account-service/internal/db"
	identityrepo "account-service/internal/identity/repository"
	"account-service/internal/logging"
	"account-service/internal/security"
	userdomain "account-service/internal/user/domain"
	userrepo "account-service/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "blue-Harbor-42!"
	memberEmail  = "member@example.com"
	memberPhone  = "+919876543210"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	identities := identityrepo.NewPostgresRepository(conn)
	addresses := addressrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		logger.Fatal("seed check", zap.Error(err))
	}
	if existing != nil {
		logger.Info("seed already applied (dev@example.com exists), skipping")
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}
	now := time.Now().UTC()

	seedUsers := []*userdomain.User{
		{
			ID: uuid.Must(uuid.NewV7()).String(), Username: "dev", Email: devUserEmail,
			FirstName: "Dev", LastName: "User", IsStaff: true,
			Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.Must(uuid.NewV7()).String(), Username: "member", Email: memberEmail, Phone: memberPhone,
			FirstName: "Member", LastName: "User",
			Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, u := range seedUsers {
		if err := users.Create(ctx, u); err != nil {
			logger.Fatal("create user", zap.String("username", u.Username), zap.Error(err))
		}
		if err := identities.SetPasswordHash(ctx, nil, u.ID, hash, now); err != nil {
			logger.Fatal("set password", zap.String("username", u.Username), zap.Error(err))
		}
	}

	member := seedUsers[1]
	if err := addresses.Create(ctx, &addressdomain.Address{
		ID:           uuid.NewString(),
		UserID:       member.ID,
		ReceiverName: member.FullName(),
		PhoneNumber:  memberPhone,
		AddressLine1: "221B Baker Street",
		City:         "London",
		State:        "Greater London",
		PostalCode:   "NW1 6XE",
		Country:      "United Kingdom",
		AddressType:  addressdomain.AddressTypeHome,
		IsDefault:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		logger.Fatal("create address", zap.Error(err))
	}

	logger.Info("seed complete",
		zap.String("staff", devUserEmail),
		zap.String("member", memberEmail),
		zap.String("password", devPassword))
}
