package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/container"
	"github.com/Subrata270/studio-sub001/infrastructure/service/jwt"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// seed creates a demo directory: one head and one requester per department
// plus the two finance users. Existing emails are skipped.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatalf("seed needs STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}

	domain := getenvDefault("SEED_EMAIL_DOMAIN", "example.com")
	departments := strings.Split(getenvDefault("SEED_DEPARTMENTS", "Engineering,Marketing,Sales"), ",")

	app, err := container.New(ctx, cfg, logger.NewNopLogger())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer app.Close()

	tokens, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("failed to initialize JWT service: %v", err)
	}

	admin, err := findOrCreateAdmin(ctx, app, domain)
	if err != nil {
		log.Fatalf("failed to prepare admin: %v", err)
	}

	requests := []inbound.CreateUserRequest{
		{Name: "Finance APA", Email: "apa@" + domain, Role: "finance", Subrole: "apa"},
		{Name: "Finance AM", Email: "am@" + domain, Role: "finance", Subrole: "am"},
	}
	for _, d := range departments {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		slug := strings.ToLower(strings.ReplaceAll(d, " ", "-"))
		requests = append(requests,
			inbound.CreateUserRequest{Name: d + " Head", Email: "hod." + slug + "@" + domain, Role: "hod", Department: d},
			inbound.CreateUserRequest{Name: d + " Requester", Email: "poc." + slug + "@" + domain, Role: "poc", Department: d},
		)
	}

	users := []*entity.User{admin}
	for _, req := range requests {
		u, err := app.UseCases.Users.CreateUser(ctx, admin.Actor(), req)
		if errors.Is(err, apperr.ErrConflict) {
			u, err = app.Repositories.Users.FindByEmail(ctx, req.Email)
		}
		if err != nil {
			log.Fatalf("failed to seed %s: %v", req.Email, err)
		}
		users = append(users, u)
	}

	for _, u := range users {
		token, err := tokens.GenerateAccessToken(outbound.TokenClaims{UserID: u.ID, Email: u.Email, Role: string(u.Role)})
		if err != nil {
			log.Fatalf("failed to issue token for %s: %v", u.Email, err)
		}
		fmt.Printf("%-8s %-4s %-12s %-32s %s\n", u.Role, u.Subrole, u.Department, u.Email, token)
	}
}

func findOrCreateAdmin(ctx context.Context, app *container.Container, domain string) (*entity.User, error) {
	admins, err := app.Repositories.Users.FindByRole(ctx, entity.RoleAdmin, entity.SubroleNone)
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return admins[0], nil
	}
	return app.UseCases.Users.BootstrapAdmin(ctx, inbound.CreateUserRequest{Name: "Administrator", Email: "admin@" + domain})
}

func getenvDefault(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
