package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/db"
	gormstore "github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store/gorm"
)

// roleGrantCmd represents the role grant command
var roleGrantCmd = &cobra.Command{
	Use:   "grant USER_ID PROJECT ROLE",
	Short: "Grant a role to a user on a project",
	Long: `Grant a role to a user on a project.

PROJECT and ROLE are names and are resolved against the projects and
roles tables. The grant is idempotent.

Example:
  hybridctl role grant 1a2b3c demo _member_`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		userID, projectName, roleName := args[0], args[1], args[2]

		gormDB, err := db.Connect(db.Config{URL: db.URL()})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		project := gormstore.NewProjectsStore(gormDB).GetProjectByName(projectName)
		if project == nil {
			fmt.Fprintf(os.Stderr, "Project %q not found\n", projectName)
			os.Exit(1)
		}
		role := gormstore.NewRolesStore(gormDB).GetRoleByName(roleName)
		if role == nil {
			fmt.Fprintf(os.Stderr, "Role %q not found\n", roleName)
			os.Exit(1)
		}

		if err := gormstore.NewAssignmentsStore(gormDB).Grant(userID, project.ID, role.ID); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to grant role:", err)
			os.Exit(1)
		}

		fmt.Printf("Granted %s on %s to %s\n", roleName, projectName, userID)
	},
}

func init() {
	roleCmd.AddCommand(roleGrantCmd)
}
