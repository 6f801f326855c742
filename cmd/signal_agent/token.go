package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/signal-outreach/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenOperator string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin token for the regenerate and delete routes",
	Long:  `Token signs a JWT with JWT_SECRET. Send it as "Authorization: Bearer <token>".`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "admin", "Operator name recorded as the token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION_HOURS)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtCfg, err := jwtConfig(cfg)
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		return errors.New("JWT_SECRET is not set")
	}

	token, err := server.NewJWTService(jwtCfg).GenerateToken(tokenOperator, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token) //nolint:errcheck
	return nil
}
