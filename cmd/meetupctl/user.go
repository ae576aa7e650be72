package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/meetup/internal/config"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/persistence/postgres"
)

func newUserCmd(load configLoader) *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "User operations"}

	var u domain.User
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("user create needs the %s store driver, got %q", config.DriverPostgres, cfg.StoreDriver)
			}
			pool, err := postgres.Connect(cmd.Context(), cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			created, err := domain.NewService(postgres.New(pool), zerolog.Nop()).CreateUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", created.ID, created.Login)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&u.Login, "login", "l", "", "Login (required)")
	createCmd.Flags().StringVarP(&u.Email, "email", "e", "", "Email address")
	createCmd.Flags().StringVar(&u.FirstName, "first-name", "", "First name")
	createCmd.Flags().StringVar(&u.LastName, "last-name", "", "Last name")
	createCmd.Flags().StringVar(&u.ImageURL, "image-url", "", "Avatar URL")
	_ = createCmd.MarkFlagRequired("login")
	userCmd.AddCommand(createCmd)

	return userCmd
}
