package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/db"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/sqlident"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a user record",
	Long: `Create a user record in the SQL backend.

With --password the user authenticates locally. Without it the record
marks a directory user: logins bind against LDAP and the record holds
the user's metadata and role assignments.

Example:
  hybridctl user create admin --password secret
  hybridctl user create jdoe --email jdoe@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		password, _ := cmd.Flags().GetString("password")
		email, _ := cmd.Flags().GetString("email")
		domainID, _ := cmd.Flags().GetString("domain")

		gormDB, err := db.Connect(db.Config{URL: db.URL()})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		user, err := sqlident.New(gormDB).CreateUser(context.Background(), &identity.User{
			Name:     name,
			Email:    email,
			DomainID: domainID,
			Enabled:  true,
		}, password)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to create user:", err)
			os.Exit(1)
		}

		kind := "directory"
		if password != "" {
			kind = "local"
		}
		fmt.Printf("Created %s user %s with id %s\n", kind, user.Name, user.ID)
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().StringP("password", "p", "", "local password (omit for a directory user)")
	userCreateCmd.Flags().StringP("email", "e", "", "email address")
	userCreateCmd.Flags().StringP("domain", "d", "", "domain id (default: default)")
}
