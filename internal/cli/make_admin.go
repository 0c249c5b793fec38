package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database"
	"github.com/mrlokans/santos/internal/database/users"
)

// MakeAdminCommand grants the Admin role to an existing user.
type MakeAdminCommand struct {
	Email string

	config *config.Config
}

func NewMakeAdminCommand(cfg *config.Config) *MakeAdminCommand {
	return &MakeAdminCommand{config: cfg}
}

func (cmd *MakeAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("make-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Email of the user to promote (defaults to AUTH_MAINTAINER_EMAIL)")
	fs.StringVar(&cmd.config.Database.Path, "db", cmd.config.Database.Path, "Path to the SQLite database (sqlite driver only)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s make-admin [-email <address>] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Grant the Admin role to a registered user.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *MakeAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Promotion never issues tokens, so no signing key is needed here
	service, err := auth.NewService(users.NewRepository(db.DB), nil, cmd.config.Auth)
	if err != nil {
		return err
	}

	result, err := service.PromoteToAdmin(context.Background(), cmd.Email)
	if err != nil {
		return err
	}

	if result.AlreadyAdmin {
		fmt.Printf("User %s is already an Admin\n", result.Email)
	} else {
		fmt.Printf("User %s is now an Admin\n", result.Email)
	}
	return nil
}
