// cmd/client/cmd/receive.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"secureprint/internal/app/client"
)

var receiveOutDir string

var receiveCmd = &cobra.Command{
	Use:   "receive <code>",
	Short: "Redeem an access code and download the file",
	Long: `Redeems an access code for its one-time download and writes the file
to the output directory.

This consumes the code: the file is destroyed on the server as part of
the download and nobody can retrieve it again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := args[0]

		peek, err := app.Peek(cmd.Context(), code)
		if err != nil {
			return err
		}

		password := ""
		if peek.RequiresPassword {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			fmt.Println()
			password = string(raw)
		}

		target, err := app.Receive(cmd.Context(), code, password, receiveOutDir)
		if err != nil {
			if errors.Is(err, client.ErrWrongPassword) {
				// the password gate does not consume the code
				return fmt.Errorf("%w, the code is still valid", err)
			}
			return err
		}

		color.Green("File saved to %s", target)
		fmt.Println("The transfer has been destroyed on the server.")

		return nil
	},
}

func init() {
	receiveCmd.Flags().StringVarP(&receiveOutDir, "out", "o", ".", "directory to write the received file to")
	rootCmd.AddCommand(receiveCmd)
}
