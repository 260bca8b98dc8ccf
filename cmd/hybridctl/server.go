package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/db"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/hybrid"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/ldapident"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/sqlident"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/notify"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/endpoints"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
	gormstore "github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store/gorm"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the hybrid identity server",
	Long: `Run the hybrid identity server

To run the server requires the environment variables DATABASE_URL and
HYBRID_SESSION_KEY. LDAP settings come from the config file or
HYBRID_LDAP_* environment variables.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		sessions, err := middleware.NewSessionAuthenticatorFromEnv(func() time.Duration {
			return config.Get().SessionTokenTTL()
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := config.Get().Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		gormDB, err := db.Connect(db.Config{URL: os.Getenv("DATABASE_URL")})
		if err != nil {
			fmt.Println("Unable to connect to DB:", err)
			os.Exit(1)
		}

		assignments := gormstore.NewAssignmentsStore(gormDB)
		projects := gormstore.NewProjectsStore(gormDB)
		roles := gormstore.NewRolesStore(gormDB)
		healthStore := gormstore.NewHealthStore(gormDB)

		sqlDriver := sqlident.New(gormDB)
		ldapDriver := ldapident.New(func() config.LDAPConfig {
			return config.Get().LDAP
		}, nil)

		driver := hybrid.New(sqlDriver, ldapDriver, assignments, projects, roles, config.Get)

		publisher, err := notify.NewFromEnv()
		if err != nil {
			fmt.Println("Unable to connect to message broker:", err)
			os.Exit(1)
		}
		if publisher != nil {
			defer publisher.Close()
			driver.SetNotifier(publisher)
			log.Println("Publishing provisioning events to RabbitMQ")
		}

		// Reload config when the file changes, so LDAP settings and
		// provisioning defaults can be changed without a restart.
		stopWatch, err := config.Watch(func(cfg *config.HybridConfig) {
			log.Println("Configuration reloaded")
		})
		if err != nil {
			log.Println("Config file watching disabled:", err)
		} else {
			defer stopWatch()
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(driver, sqlDriver, assignments, projects, roles, healthStore, sessions, gormDB, host, port)

		endpoints.RegisterAll(s)

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
