package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitalbridge/vitalbridge/internal/api"
	"github.com/vitalbridge/vitalbridge/internal/connection"
)

var (
	connectEmail        string
	connectRefreshToken string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the health platform to the server",
	Long: `Connect establishes the platform connection:

  1. Requests read authorization from the local health store
  2. Registers the connection with the aggregation server
  3. Starts observing data changes
  4. Runs the first sync (up to the configured backfill window)`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		opts := api.ConnectOptions{
			Email:        connectEmail,
			RefreshToken: connectRefreshToken,
		}
		if err := app.manager.Connect(cmd.Context(), opts); err != nil {
			if errors.Is(err, connection.ErrPermissionDenied) {
				fmt.Fprintf(os.Stderr, "Error: health data read access was denied\n")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error connecting: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Connected %s for user %s\n", app.cfg.Platform, app.cfg.UserUUID)
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectEmail, "email", "", "account email to associate with the connection")
	connectCmd.Flags().StringVar(&connectRefreshToken, "refresh-token", "", "refresh token forwarded to the server")
	rootCmd.AddCommand(connectCmd)
}
