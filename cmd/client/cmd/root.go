// cmd/client/cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"secureprint/internal/app/client"
	"secureprint/internal/app/client/config"
	"secureprint/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "secureprint",
	Short: "SecurePrint - one-time encrypted file transfer",
	Long: `SecurePrint lets you hand a file to exactly one recipient.

The file is encrypted on the server and bound to a short access code.
The first redemption of the code decrypts and returns the file, then the
file is destroyed. Unclaimed files are destroyed when they expire.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(_ *cobra.Command, _ []string) error {
	cfg = config.MustLoad()

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log = logger.New(cfg.Env)
	app = client.New(cfg, log)

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "SecurePrint server address")
}
