package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qwerty1432/Memory-Research/internal/client"
)

var contextCmd = &cobra.Command{
	Use:   "context <user_id> <session_id>",
	Short: "Print the context the next turn of a session would carry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := client.New(serverURL).Context(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "(empty context)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
