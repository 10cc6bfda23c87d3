package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qwerty1432/Memory-Research/internal/client"
	"github.com/qwerty1432/Memory-Research/internal/condition"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage study participants",
}

var userAddCondition string

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a participant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		u, err := c.RegisterUser(cmd.Context(), args[0], userAddCondition)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.UserID, u.Username, u.ConditionID)
		return nil
	},
}

var userConditionCmd = &cobra.Command{
	Use:   "condition <user_id> [condition]",
	Short: "Show or reassign a participant's condition",
	Long:  "Conditions: " + strings.Join(condition.Names(), ", "),
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)

		var cond *client.Condition
		var err error
		if len(args) == 2 {
			cond, err = c.SetCondition(cmd.Context(), args[0], args[1])
		} else {
			cond, err = c.Condition(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", cond.ConditionID, cond.Description)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddCondition, "condition", "", "experimental condition (default from server config)")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userConditionCmd)
}
