package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crucial707/admin-console/internal/auth"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
)

// Account is a user the seed guarantees, with the role it must hold.
type Account struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// RoleDef is a role the seed guarantees.
type RoleDef struct {
	Name        string
	Permissions []string
}

// DefaultRoles and DefaultAccounts are the development fixtures.
var (
	DefaultRoles = []RoleDef{
		{Name: models.RoleSuperAdmin, Permissions: []string{"all"}},
		{Name: "user", Permissions: []string{"read"}},
	}
	DefaultAccounts = []Account{
		{Name: "Super Admin", Email: "superadmin@example.com", Password: "Test1234!", Role: models.RoleSuperAdmin},
		{Name: "Test User", Email: "user@example.com", Password: "password123", Role: "user"},
	}
)

// Run creates any missing roles and accounts in one transaction. Existing rows
// are left untouched apart from granting the account its role, so Run is safe
// to repeat.
func Run(ctx context.Context, store *repo.Store, roles []RoleDef, accounts []Account) error {
	return store.InTx(ctx, func(tx repo.Repos) error {
		roleIDs := make(map[string]int, len(roles))
		for _, def := range roles {
			role, err := ensureRole(ctx, tx.Roles, def)
			if err != nil {
				return err
			}
			roleIDs[role.Name] = role.ID
		}

		for _, acct := range accounts {
			user, err := ensureUser(ctx, tx.Users, acct)
			if err != nil {
				return err
			}
			id, ok := roleIDs[acct.Role]
			if !ok {
				return fmt.Errorf("seed: account %s references unknown role %q", acct.Email, acct.Role)
			}
			if err := tx.Users.AddRoles(ctx, user.ID, []int{id}); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureRole(ctx context.Context, roles *repo.RoleRepo, def RoleDef) (*models.Role, error) {
	role, err := roles.GetByName(ctx, def.Name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	role, err = roles.Create(ctx, def.Name, def.Permissions)
	if err != nil {
		return nil, err
	}
	slog.Info("seed: created role", "name", role.Name, "id", role.ID)
	return role, nil
}

func ensureUser(ctx context.Context, users *repo.UserRepo, acct Account) (*models.User, error) {
	user, err := users.GetByEmail(ctx, acct.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	hash, err := auth.HashPassword(acct.Password)
	if err != nil {
		return nil, err
	}
	user, err = users.Create(ctx, acct.Name, acct.Email, hash)
	if err != nil {
		return nil, err
	}
	slog.Info("seed: created user", "email", user.Email, "id", user.ID)
	return user, nil
}
