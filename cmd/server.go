package cmd

import (
	"fmt"
	"os"

	"github.com/Fomalhautarc/kucun/config"
	"github.com/Fomalhautarc/kucun/internal/server"
	"github.com/Fomalhautarc/kucun/pkg/logger"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the inventory API server",
	Long: `Starts the inventory API server. Usage:

	kucun server
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		logger.Init(logger.Options{
			Level:  cfg.LogLevel,
			Pretty: cfg.Env == "dev",
		})

		srv, err := server.New(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			os.Exit(1)
		}
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
