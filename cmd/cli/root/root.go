package root

import (
	"github.com/crucial707/admin-console/cmd/cli/analytics"
	"github.com/crucial707/admin-console/cmd/cli/audit"
	"github.com/crucial707/admin-console/cmd/cli/auth"
	"github.com/crucial707/admin-console/cmd/cli/roles"
	"github.com/crucial707/admin-console/cmd/cli/users"
	"github.com/spf13/cobra"
)

// New builds the full command tree.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Super admin console CLI",
		Long:          "Command line interface for the super admin console API. Set ADMIN_API_URL to target a non-local server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(auth.Commands()...)
	cmd.AddCommand(users.Commands()...)
	cmd.AddCommand(roles.Command(), audit.Command(), analytics.Command())
	return cmd
}
