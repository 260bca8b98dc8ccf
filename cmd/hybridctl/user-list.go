package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/db"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/sqlident"
)

// userListCmd represents the user list command
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user records",
	Long: `List user records from the SQL backend.

Example:
  hybridctl user list
  hybridctl user list --name jdoe`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")

		gormDB, err := db.Connect(db.Config{URL: db.URL()})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		users, err := sqlident.New(gormDB).ListUsers(context.Background(), identity.Hints{
			Name:  name,
			Limit: limit,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to list users:", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tENABLED\tEMAIL")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", u.ID, u.Name, u.DomainID, u.Enabled, u.Email)
		}
		_ = w.Flush()
	},
}

func init() {
	userCmd.AddCommand(userListCmd)
	userListCmd.Flags().StringP("name", "n", "", "filter by exact name")
	userListCmd.Flags().IntP("limit", "l", 0, "maximum number of rows")
}
