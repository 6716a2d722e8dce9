package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/container"
	"github.com/Subrata270/studio-sub001/infrastructure/service/jwt"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

func main() {
	email := flag.String("email", "admin@example.com", "administrator email")
	name := flag.String("name", "Administrator", "administrator display name")
	id := flag.String("id", "", "optional fixed user id")
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatalf("create_admin needs STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}

	app, err := container.New(ctx, cfg, logger.NewNopLogger())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}

	admin, err := app.UseCases.Users.BootstrapAdmin(ctx, inbound.CreateUserRequest{
		ID:    *id,
		Name:  *name,
		Email: *email,
	})
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	token, err := tokenService.GenerateAccessToken(outbound.TokenClaims{
		UserID: admin.ID,
		Email:  admin.Email,
		Role:   string(admin.Role),
	})
	if err != nil {
		log.Fatalf("Failed to issue access token: %v", err)
	}

	fmt.Printf("✅ Admin user created successfully!\n")
	fmt.Printf("📧 Email: %s\n", admin.Email)
	fmt.Printf("👤 Name: %s\n", admin.Name)
	fmt.Printf("🆔 ID: %s\n", admin.ID)
	fmt.Printf("🔑 Token (valid %s): %s\n", cfg.AccessTokenTTL, token)
}
