package users

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/crucial707/admin-console/cmd/cli/api"
	"github.com/crucial707/admin-console/cmd/cli/output"
	"github.com/spf13/cobra"
)

type roleRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type user struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin"`
	Roles     []roleRef  `json:"roles"`
}

func (u user) roleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// ==========================
// CLI Command Init
// ==========================

// Commands returns the users command tree and the top-level assign-role command.
func Commands() []*cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage console users",
	}
	usersCmd.AddCommand(listUsersCmd(), getUserCmd(), createUserCmd(), updateUserCmd(), deleteUserCmd())
	return []*cobra.Command{usersCmd, assignRoleCmd()}
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	var page, limit int
	var search, role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := api.Authenticated()
			if err != nil {
				return err
			}

			q := url.Values{}
			q.Set("page", strconv.Itoa(page))
			q.Set("limit", strconv.Itoa(limit))
			if search != "" {
				q.Set("search", search)
			}
			if role != "" {
				q.Set("role", role)
			}

			var resp struct {
				Users      []user     `json:"users"`
				Pagination pagination `json:"pagination"`
			}
			if err := client.Get(cmd.Context(), "/api/v1/superadmin/users", q, &resp); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(resp.Users))
			for _, u := range resp.Users {
				rows = append(rows, []interface{}{u.ID, u.Name, u.Email, output.Join(u.roleNames()), output.Time(u.LastLogin)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Email", "Roles", "Last Login"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d users)\n",
				resp.Pagination.Page, resp.Pagination.TotalPages, resp.Pagination.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Users per page")
	cmd.Flags().StringVar(&search, "search", "", "Match name or email")
	cmd.Flags().StringVar(&role, "role", "", "Only users holding this role")
	return cmd
}

// ==========================
// Get User
// ==========================
func getUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user with activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := api.Authenticated()
			if err != nil {
				return err
			}

			var resp struct {
				user
				ActivitySummary struct {
					LoginCount   int        `json:"loginCount"`
					LastActivity *time.Time `json:"lastActivity"`
				} `json:"activitySummary"`
			}
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/superadmin/users/%d", id), nil, &resp); err != nil {
				return err
			}

			output.RenderTable(cmd.OutOrStdout(),
				[]string{"ID", "Name", "Email", "Roles", "Logins", "Last Activity"},
				[][]interface{}{{resp.ID, resp.Name, resp.Email, output.Join(resp.roleNames()),
					resp.ActivitySummary.LoginCount, output.Time(resp.ActivitySummary.LastActivity)}})
			return nil
		},
	}
}

// ==========================
// Create User
// ==========================
func createUserCmd() *cobra.Command {
	var name, email, password string
	var roleIDs []int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			if roleIDs == nil {
				roleIDs = []int{}
			}
			payload := map[string]interface{}{
				"name": name, "email": email, "password": password, "roleIds": roleIDs,
			}
			var resp struct {
				User user `json:"user"`
			}
			if err := client.Do(cmd.Context(), "POST", "/api/v1/superadmin/users", payload, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", resp.User.ID, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().IntSliceVar(&roleIDs, "role-ids", nil, "Role ids to assign")
	return cmd
}

// ==========================
// Update User
// ==========================
func updateUserCmd() *cobra.Command {
	var name, email string
	var roleIDs []int
	var clearRoles bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user; --role-ids replaces the whole role set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := api.Authenticated()
			if err != nil {
				return err
			}

			payload := map[string]interface{}{}
			if name != "" {
				payload["name"] = name
			}
			if email != "" {
				payload["email"] = email
			}
			switch {
			case clearRoles:
				payload["roleIds"] = []int{}
			case cmd.Flags().Changed("role-ids"):
				payload["roleIds"] = roleIDs
			}

			var resp struct {
				User user `json:"user"`
			}
			if err := client.Do(cmd.Context(), "PUT", fmt.Sprintf("/api/v1/superadmin/users/%d", id), payload, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d: %s <%s> roles=%s\n",
				resp.User.ID, resp.User.Name, resp.User.Email, output.Join(resp.User.roleNames()))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().IntSliceVar(&roleIDs, "role-ids", nil, "Replacement role ids")
	cmd.Flags().BoolVar(&clearRoles, "clear-roles", false, "Remove every role from the user")
	return cmd
}

// ==========================
// Delete User
// ==========================
func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			if err := client.Do(cmd.Context(), "DELETE", fmt.Sprintf("/api/v1/superadmin/users/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}
}

// ==========================
// Assign Role
// ==========================
func assignRoleCmd() *cobra.Command {
	var userID, roleID int

	cmd := &cobra.Command{
		Use:   "assign-role",
		Short: "Grant a role to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 || roleID <= 0 {
				return fmt.Errorf("--user and --role are required")
			}
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			payload := map[string]int{"userId": userID, "roleId": roleID}
			if err := client.Do(cmd.Context(), "POST", "/api/v1/superadmin/assign-role", payload, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned role %d to user %d\n", roleID, userID)
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "User id")
	cmd.Flags().IntVar(&roleID, "role", 0, "Role id")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
