package roles

import (
	"fmt"
	"strconv"

	"github.com/crucial707/admin-console/cmd/cli/api"
	"github.com/crucial707/admin-console/cmd/cli/output"
	"github.com/spf13/cobra"
)

type role struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Command returns the roles command tree.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles",
	}
	cmd.AddCommand(listCmd(), createCmd(), updateCmd())
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			var resp struct {
				Roles []role `json:"roles"`
			}
			if err := client.Get(cmd.Context(), "/api/v1/superadmin/roles", nil, &resp); err != nil {
				return err
			}
			rows := make([][]interface{}, 0, len(resp.Roles))
			for _, r := range resp.Roles {
				rows = append(rows, []interface{}{r.ID, r.Name, output.Join(r.Permissions)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Permissions"}, rows)
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	var name string
	var permissions []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			if permissions == nil {
				permissions = []string{}
			}
			var resp struct {
				Role role `json:"role"`
			}
			payload := map[string]interface{}{"name": name, "permissions": permissions}
			if err := client.Do(cmd.Context(), "POST", "/api/v1/superadmin/roles", payload, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created role %d (%s)\n", resp.Role.ID, resp.Role.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Role name")
	cmd.Flags().StringSliceVar(&permissions, "permissions", nil, "Comma-separated permission tags")
	return cmd
}

func updateCmd() *cobra.Command {
	var name string
	var permissions []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a role or replace its permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			client, err := api.Authenticated()
			if err != nil {
				return err
			}

			payload := map[string]interface{}{}
			if name != "" {
				payload["name"] = name
			}
			if cmd.Flags().Changed("permissions") {
				if permissions == nil {
					permissions = []string{}
				}
				payload["permissions"] = permissions
			}
			var resp struct {
				Role role `json:"role"`
			}
			if err := client.Do(cmd.Context(), "PUT", fmt.Sprintf("/api/v1/superadmin/roles/%d", id), payload, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated role %d: %s [%s]\n", resp.Role.ID, resp.Role.Name, output.Join(resp.Role.Permissions))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New role name")
	cmd.Flags().StringSliceVar(&permissions, "permissions", nil, "Replacement permission tags")
	return cmd
}
