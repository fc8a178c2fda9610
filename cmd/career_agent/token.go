package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-transitions/internal/server"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "Mint a bearer token for the HTTP API",
	Long:        "Sign an HS256 token for the given subject with the configured JWT secret.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{logLevelAnnotation: "warn"},
	RunE:        runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (required)")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return fmt.Errorf("JWT secret is required (set JWT_SECRET or jwt_secret)")
	}
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT config: %w", err)
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenSubject)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
