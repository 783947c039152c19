package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/internal/repository"
	"go-inventory-checklist/internal/service"
	"go-inventory-checklist/pkg/config"
	"go-inventory-checklist/pkg/database"
	"go-inventory-checklist/pkg/jwt"
)

// NewAdminCommand groups the operator commands that talk to the database directly.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Database maintenance (needs DATABASE_URL or DB_*)",
	}
	cmd.AddCommand(newMigrateCommand(rootOpts))
	cmd.AddCommand(newSeedSuperAdminCommand(rootOpts))
	cmd.AddCommand(newResetPasswordCommand(rootOpts))
	return cmd
}

func (o *RootOptions) database() (*config.Config, *gorm.DB, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}
	db, err := o.OpenDB(cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "connect database", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending schema migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			_, db, err := rootOpts.database()
			if err != nil {
				return out.Error(err)
			}
			defer closeDB(db)

			if err := database.Migrate(db); err != nil {
				return out.Error(WrapExitError(ExitFailure, "migrate", err))
			}
			return out.Success(map[string]bool{"migrated": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Migrations applied.")
			})
		},
	}
}

type seedOptions struct {
	*RootOptions
	Email      string
	Name       string
	AuthUserID string
}

func newSeedSuperAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "seed-superadmin",
		Short:         "Register a platform operator (idempotent by email)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			cfg, db, err := opts.database()
			if err != nil {
				return out.Error(err)
			}
			defer closeDB(db)

			auth := service.NewAuthService(
				jwt.NewVerifier(cfg.Identity.JWTSecret),
				repository.NewUserRepo(db),
				repository.NewSuperAdminRepo(db),
				nil,
				zerolog.New(cmd.ErrOrStderr()),
			)
			in := &model.InsertSuperAdmin{Email: opts.Email, Name: opts.Name, AuthUserID: opts.AuthUserID}
			if err := auth.SeedSuperAdmin(in); err != nil {
				return out.Error(WrapExitError(ExitFailure, "seed super admin", err))
			}
			return out.Success(in, func(w io.Writer) {
				fmt.Fprintf(w, "Super admin %s registered.\n", opts.Email)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "operator email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.AuthUserID, "auth-user-id", "", "identity provider user id (required)")
	_ = cmd.MarkFlagRequired("auth-user-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

type resetPasswordOptions struct {
	*RootOptions
	Email    string
	Password string
}

// newResetPasswordCommand sets the local password of an account that does not
// sign in through the identity provider.
func newResetPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &resetPasswordOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "reset-password",
		Short:         "Set the local password of a user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "new password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runResetPassword(opts *resetPasswordOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if len(opts.Password) < 6 {
		return out.Error(NewExitError(ExitCommandError, "password must have at least 6 characters"))
	}
	_, db, err := opts.database()
	if err != nil {
		return out.Error(err)
	}
	defer closeDB(db)

	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(opts.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return out.Error(NewExitError(ExitFailure, fmt.Sprintf("user %s not found", opts.Email)))
	}
	if err != nil {
		return out.Error(WrapExitError(ExitFailure, "find user", err))
	}
	if user.AuthUserID != nil {
		out.VerboseLog("%s is linked to the identity provider; the local password is only a fallback", opts.Email)
	}

	if err := user.SetPassword(opts.Password); err != nil {
		return out.Error(WrapExitError(ExitFailure, "hash password", err))
	}
	if err := users.Update(user); err != nil {
		return out.Error(WrapExitError(ExitFailure, "update user", err))
	}
	return out.Success(map[string]string{"email": user.Email}, func(w io.Writer) {
		fmt.Fprintf(w, "Password for %s has been reset.\n", user.Email)
	})
}
