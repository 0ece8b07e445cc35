package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-coach-chat/internal/infra/api"
)

func newTokenCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "token <userID>",
		Short: "Mint an access token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			tok, err := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.DevHeader, cfg.Runtime.Dev, log).Mint(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}
