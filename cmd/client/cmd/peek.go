// cmd/client/cmd/peek.go
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var peekCmd = &cobra.Command{
	Use:   "peek <code>",
	Short: "Check an access code without consuming it",
	Long: `Checks whether an access code is still valid and whether a password
is required, without spending the one-time download.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.Peek(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if result.AlreadyUsed {
			color.Yellow("This code has already been used.")
			return nil
		}

		color.Green("Code is valid.")
		if result.RequiresPassword {
			fmt.Println("A password is required to receive the file.")
		} else {
			fmt.Printf("File: %s (%d bytes)\n", result.FileName, result.FileSize)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(peekCmd)
}
