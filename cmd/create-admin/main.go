// Command create-admin bootstraps a collaborator account for the portal.
//
//	create-admin -email admin@example.com -name "Ada" -role admin
//
// The password is read from CLARIFY_ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"clarify/internal/auth"
	"clarify/internal/cli"
	"clarify/internal/core"
	"clarify/internal/log"
	"clarify/internal/services"
)

func main() {
	email := flag.String("email", "", "collaborator email")
	name := flag.String("name", "Administrator", "collaborator display name")
	role := flag.String("role", string(core.CollaboratorAdmin), "collaborator role (admin or support)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	if *email == "" {
		cli.Fatal(logger, "Missing flag", errors.New("-email is required"))
	}
	password := os.Getenv("CLARIFY_ADMIN_PASSWORD")
	if password == "" {
		cli.Fatal(logger, "Missing password", errors.New("CLARIFY_ADMIN_PASSWORD is not set"))
	}

	cfg := cli.LoadAndValidateConfig(logger, nil)
	store := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer store.Close()

	// Tokens are not issued here; the manager only satisfies the constructor.
	support := services.NewSupportService(store, auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL), logger)
	c, err := support.CreateCollaborator(context.Background(), *name, *email, password, core.CollaboratorRole(*role))
	if err != nil {
		logger.Error("Failed to create collaborator", log.FieldError, err, "email", *email)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Collaborator created", "id", c.ID, "email", c.Email, "role", string(c.Role))
}
