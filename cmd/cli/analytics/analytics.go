package analytics

import (
	"github.com/crucial707/admin-console/cmd/cli/api"
	"github.com/crucial707/admin-console/cmd/cli/output"
	"github.com/spf13/cobra"
)

// Command prints the dashboard summary.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show user, role and weekly-active counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := api.Authenticated()
			if err != nil {
				return err
			}
			var s struct {
				TotalUsers           int    `json:"totalUsers"`
				TotalRoles           int    `json:"totalRoles"`
				ActiveUsersLast7Days int    `json:"activeUsersLast7Days"`
				GeneratedAt          string `json:"generatedAt"`
			}
			if err := client.Get(cmd.Context(), "/api/v1/superadmin/analytics/summary", nil, &s); err != nil {
				return err
			}
			output.RenderTable(cmd.OutOrStdout(),
				[]string{"Users", "Roles", "Active (7d)", "Generated"},
				[][]interface{}{{s.TotalUsers, s.TotalRoles, s.ActiveUsersLast7Days, s.GeneratedAt}})
			return nil
		},
	}
}
