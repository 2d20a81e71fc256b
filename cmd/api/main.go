package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:           "complaint-service",
	Short:         "Complaint deadline tracking and escalation service",
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the escalation scheduler",
	RunE:  runServe,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one escalation sweep and exit",
	RunE:  runSweep,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations to the configured database",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an existing user",
	RunE:  runToken,
}

var (
	bootstrapAdminFlag bool
	tokenUserFlag      string
	tokenRoleFlag      string
)

func init() {
	serveCmd.Flags().BoolVar(&bootstrapAdminFlag, "bootstrap-admin", false, "Create an admin user in the in-memory store and log its token")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	tokenCmd.Flags().StringVar(&tokenUserFlag, "user", "", "User id to issue the token for (required)")
	tokenCmd.Flags().StringVar(&tokenRoleFlag, "role", "user", "Role claim to embed (user, staff or admin)")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, sweepCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
