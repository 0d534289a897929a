// cmd/client/cmd/send.go
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	sendTTL      string
	sendPassword bool
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Upload a file for one-time transfer",
	Long: `Uploads a file to the server and prints the access code.

The code grants exactly one download. Share it with the recipient over a
channel you trust. Optionally protect the transfer with a password the
recipient must enter as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if sendPassword {
			fmt.Print("Password for this transfer: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			fmt.Println()
			password = string(raw)
		}

		result, err := app.Send(cmd.Context(), args[0], sendTTL, password)
		if err != nil {
			return err
		}

		fmt.Printf("File %s (%d bytes) secured.\n", result.FileName, result.Size)
		fmt.Printf("Access code: %s\n", color.New(color.FgGreen, color.Bold).Sprint(result.Code))
		fmt.Printf("Expires at:  %s\n", result.ExpiresAt)
		fmt.Println()
		fmt.Println("The code grants exactly one download, then the file is destroyed.")

		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTTL, "ttl", "", "retention period: 1h, 24h or 7d (default 24h)")
	sendCmd.Flags().BoolVar(&sendPassword, "password", false, "protect the transfer with a password")
	rootCmd.AddCommand(sendCmd)
}
