package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	Long:  "Sign a bearer token for an API client with server.auth.jwt_secret.",
	RunE:  runToken,
}

var tokenClientID string

func init() {
	tokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "Client UUID to embed in the token (default: a new one)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Server.Auth.Enabled() {
		return fmt.Errorf("authentication is disabled: set server.auth.jwt_secret (JOBMATCH_SERVER_AUTH_JWT_SECRET)")
	}

	clientID := uuid.New()
	if tokenClientID != "" {
		if clientID, err = uuid.Parse(tokenClientID); err != nil {
			return fmt.Errorf("invalid client-id: %w", err)
		}
	}

	token, err := server.NewTokenService(cfg.Server.Auth).GenerateToken(clientID)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Client %s, valid for %s\n", clientID, cfg.Server.Auth.Expiration())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
