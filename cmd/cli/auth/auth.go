package auth

import (
	"errors"
	"fmt"

	"github.com/crucial707/admin-console/cmd/cli/api"
	"github.com/crucial707/admin-console/cmd/cli/config"
	"github.com/spf13/cobra"
)

// Commands returns the login and logout commands.
func Commands() []*cobra.Command {
	return []*cobra.Command{loginCmd(), logoutCmd()}
}

// loginCmd logs in and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the admin console API",
		Long:  "Authenticate with email and password and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			var resp struct {
				Token string `json:"token"`
				User  struct {
					Name  string   `json:"name"`
					Roles []string `json:"roles"`
				} `json:"user"`
			}
			payload := map[string]string{"email": email, "password": password}
			if err := api.New().Do(cmd.Context(), "POST", "/api/v1/auth/login", payload, &resp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if resp.Token == "" {
				return errors.New("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s %v. Token stored locally.\n", resp.User.Name, resp.User.Roles)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}
