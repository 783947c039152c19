package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go-inventory-checklist/pkg/apiclient"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email    string
	Password string
}

// NewLoginCommand signs in with the identity service and syncs the local user.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and sync the application user",
		Long: `Sign in with email and password, persist the session and register the
user with the API.

The password can also be given through OPSCTL_PASSWORD.

Example:
  opsctl login --email ana@padaria.com`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(opts *LoginOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	password := opts.Password
	if password == "" {
		password = os.Getenv("OPSCTL_PASSWORD")
	}
	if password == "" {
		return out.Error(NewExitError(ExitCommandError, "password required (--password or OPSCTL_PASSWORD)"))
	}

	app, err := opts.clientApp(cmd.ErrOrStderr())
	if err != nil {
		return out.Error(err)
	}
	defer app.Close()

	ctx := cmd.Context()
	if _, err := app.auth.SignIn(ctx, opts.Email, password); err != nil {
		return out.Error(WrapExitError(ExitFailure, "sign in", err))
	}
	out.VerboseLog("signed in as %s, syncing", opts.Email)

	state := app.syncer.Start(ctx)
	if !state.Authenticated() {
		return out.Error(NewExitError(ExitFailure, "signed in but the API has no account for this identity"))
	}
	return out.Success(state.User, func(w io.Writer) {
		printUser(w, state.User)
	})
}

// NewLogoutCommand signs out and removes the persisted session.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Sign out and forget the session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			app, err := rootOpts.clientApp(cmd.ErrOrStderr())
			if err != nil {
				return out.Error(err)
			}
			defer app.Close()

			if err := app.syncer.SignOut(cmd.Context()); err != nil {
				return out.Error(WrapExitError(ExitFailure, "sign out", err))
			}
			return out.Success(map[string]bool{"signed_out": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Signed out.")
			})
		},
	}
}

// NewWhoamiCommand restores the session, syncs it and prints the local user.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the signed-in application user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			app, err := rootOpts.clientApp(cmd.ErrOrStderr())
			if err != nil {
				return out.Error(err)
			}
			defer app.Close()

			state := app.syncer.Start(cmd.Context())
			if !state.Authenticated() {
				return out.Error(NewExitError(ExitFailure, "not signed in"))
			}
			return out.Success(state.User, func(w io.Writer) {
				printUser(w, state.User)
			})
		},
	}
}

// NewDevResetCommand clears every piece of local client state.
func NewDevResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dev-reset",
		Short: "Delete the persisted session and cached data",
		Long: `Delete the persisted session file and drop cached queries without
contacting the identity service. Meant for development when a session is stuck.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			app, err := rootOpts.clientApp(cmd.ErrOrStderr())
			if err != nil {
				return out.Error(err)
			}
			defer app.Close()

			app.cache.Clear()
			if err := app.store.Clear(); err != nil {
				return out.Error(WrapExitError(ExitCommandError, "remove session file", err))
			}
			out.VerboseLog("removed %s", app.store.Path)
			return out.Success(map[string]string{"session_file": app.store.Path}, func(w io.Writer) {
				fmt.Fprintln(w, "Local session and cache cleared.")
			})
		},
	}
}

func printUser(w io.Writer, u *apiclient.LocalUser) {
	fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w, "  role:    %s\n", u.Role)
	if u.CompanyName != "" {
		fmt.Fprintf(w, "  company: %s\n", u.CompanyName)
	}
	if len(u.Permissions) > 0 {
		fmt.Fprintf(w, "  perms:   %v\n", u.Permissions)
	}
}
