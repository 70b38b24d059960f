package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weatherengine/maritime/internal/auth"
)

// newKeysCmd creates the keys command group. Keys are minted locally; the
// server only ever sees the bcrypt hash through AUTH_API_KEY_HASHES.
func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage operator API keys",
	}

	var env string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate an operator API key and its config entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, raw, hash, err := auth.GenerateAPIKey(env)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key (shown once):   %s\n", boldFormat(raw))
			fmt.Fprintf(out, "AUTH_API_KEY_HASHES entry: %s:%s\n", id, hash)
			return nil
		},
	}
	generate.Flags().StringVar(&env, "env", "live", "key environment label")

	cmd.AddCommand(generate)
	return cmd
}
