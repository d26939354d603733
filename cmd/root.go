package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kucun",
	Short: "Inventory management API server",
	Long: `kucun is the inventory management backend. It serves the product
catalog API and manages the database schema. Usage:

	kucun server
	kucun migrate up
`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main(); it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
