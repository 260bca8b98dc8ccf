package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hybridctl",
	Short: "Manage the hybrid identity backend",
	Long: `hybridctl manages the hybrid identity backend: a Keystone-style
identity service that authenticates users against LDAP while keeping
user records and role assignments in SQL.`,
}

func main() {
	// Load a .env file if one is present. Real environment wins.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
