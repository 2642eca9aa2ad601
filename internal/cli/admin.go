package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/model"
	"github.com/glowscan/skincare-admin/internal/repository"
	"github.com/glowscan/skincare-admin/internal/utils"
)

// AdminStore is the subset of the admin and token repositories the admin
// commands use.
type AdminStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (uint64, error)
	ListAll(ctx context.Context) ([]model.Admin, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
	RevokeAllForAdmin(ctx context.Context, adminID uint64) error
}

const minPasswordLen = 8

// CreateAdmin validates the input, hashes the password and inserts the row.
func CreateAdmin(ctx context.Context, store AdminStore, name, email, password string, cost int) (uint64, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)
	if name == "" {
		return 0, errors.New("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return 0, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < minPasswordLen {
		return 0, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	return store.Create(ctx, name, email, hash)
}

// RehashPlaintext replaces every stored password that is not a bcrypt hash
// with its bcrypt hash and revokes the refresh tokens issued to that admin.
// It returns how many rows changed.
func RehashPlaintext(ctx context.Context, store AdminStore, cost int, logger *zap.Logger) (int, error) {
	admins, err := store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list admins: %w", err)
	}
	changed := 0
	for _, a := range admins {
		if utils.IsBcryptHash(a.PasswordHash) {
			continue
		}
		if a.PasswordHash == "" {
			logger.Warn("admin has no password, skipped", zap.Uint64("admin_id", a.ID))
			continue
		}
		hash, err := utils.HashPassword(a.PasswordHash, cost)
		if err != nil {
			return changed, fmt.Errorf("hash password of admin %d: %w", a.ID, err)
		}
		if err := store.UpdatePasswordHash(ctx, a.ID, hash); err != nil {
			return changed, fmt.Errorf("update admin %d: %w", a.ID, err)
		}
		changed++
		if err := store.RevokeAllForAdmin(ctx, a.ID); err != nil {
			return changed, fmt.Errorf("revoke sessions of admin %d: %w", a.ID, err)
		}
		logger.Info("password rehashed", zap.Uint64("admin_id", a.ID))
	}
	return changed, nil
}

// readPassword takes the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewAdminCmd builds the "admin" command group. storeFn opens the store and
// returns a release function.
func NewAdminCmd(envFn func() (*Env, error), storeFn func(context.Context, *Env) (AdminStore, func(), error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var name, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long:  "Create an admin account. Without --password the password is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readPassword(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			store, release, err := storeFn(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer release()

			id, err := CreateAdmin(cmd.Context(), store, name, email, password, env.Config.BcryptCost)
			if errors.Is(err, repository.ErrEmailExists) {
				return fmt.Errorf("an admin with email %s already exists", repository.NormalizeEmail(email))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %d (%s)\n", id, repository.NormalizeEmail(email))
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&email, "email", "", "Login email")
	create.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	rehash := &cobra.Command{
		Use:   "rehash",
		Short: "Hash any admin password still stored in plain text",
		Long:  "Hash any admin password still stored in plain text. Refresh tokens of every rehashed admin are revoked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			store, release, err := storeFn(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer release()

			n, err := RehashPlaintext(cmd.Context(), store, env.Config.BcryptCost, env.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rehashed %d password(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(create, rehash)
	return cmd
}

type adminAccounts struct {
	*repository.AdminRepo
	tokens *repository.TokenRepo
}

func (a adminAccounts) RevokeAllForAdmin(ctx context.Context, adminID uint64) error {
	return a.tokens.RevokeAllForAdmin(ctx, adminID)
}

// OpenAdminStore is the production storeFn for NewAdminCmd.
func OpenAdminStore(ctx context.Context, env *Env) (AdminStore, func(), error) {
	db, err := env.OpenDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := adminAccounts{AdminRepo: repository.NewAdminRepo(db), tokens: repository.NewTokenRepo(db)}
	return store, func() { _ = db.Close() }, nil
}
