package main

import (
	"fmt"
	"os"
	"time"

	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a catalog user",
	Long: `token signs a session token for --email without going through the
login endpoint. The email must belong to a user or integration user in the
catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.SetOutput(os.Stderr)

		email, _ := cmd.Flags().GetString("email")

		store, err := openCatalog(cmd.Context(), cfg, log, nil)
		if err != nil {
			return err
		}
		tokens, err := newTokenManager(cfg)
		if err != nil {
			return err
		}

		result, err := auth.NewAuthenticator(tokens, store, auth.WithAuthLogger(log)).Login(cmd.Context(), email, "")
		if err != nil {
			return fmt.Errorf("cannot issue token for %s: %w", email, err)
		}

		fmt.Printf("%s\n", result.Token)
		fmt.Fprintf(os.Stderr, "user %s, expires %s\n", result.UserID, result.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}
