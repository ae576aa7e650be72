package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"example.com/meetup/internal/auth"
)

func newTokenCmd(load configLoader) *cobra.Command {
	tokenCmd := &cobra.Command{Use: "token", Short: "Bearer token helpers for local development"}

	var (
		login  string
		scopes []string
		ttl    time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token for a login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			token, err := auth.Issue(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, login, scopes, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVarP(&login, "login", "l", "", "Token subject (required)")
	issueCmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "Scope to grant, repeatable (e.g. "+auth.ScopeUsersAdmin+")")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("login")
	tokenCmd.AddCommand(issueCmd)

	return tokenCmd
}
