// cmd/client/cmd/cancel.go
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <code>",
	Short: "Cancel a pending transfer",
	Long: `Destroys a pending transfer before it is redeemed. Cancelling a code
that no longer exists is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Cancel(cmd.Context(), args[0]); err != nil {
			return err
		}

		color.Green("Transfer canceled.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
