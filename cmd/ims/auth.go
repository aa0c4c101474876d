package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/model"
	"github.com/alfredjeanlab/ims/internal/session"
	"github.com/alfredjeanlab/ims/internal/ui"
)

func newPrompter(cmd *cobra.Command) *ui.Prompter {
	return ui.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Sign in and store the session token",
	GroupID: "account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		p := newPrompter(cmd)
		var err error
		if username == "" {
			if username, err = p.Line("Username"); err != nil {
				return err
			}
		}
		password := os.Getenv("IMS_PASSWORD")
		if password == "" {
			if password, err = p.Password("Password"); err != nil {
				return err
			}
		}

		if err := app.api.Login(cmd.Context(), model.Credentials{Username: username, Password: password}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Forget the stored session token",
	GroupID: "account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.api.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:     "register",
	Short:   "Create an account",
	GroupID: "account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := &model.Registration{}
		in.Username, _ = cmd.Flags().GetString("username")
		in.Email, _ = cmd.Flags().GetString("email")
		in.FirstName, _ = cmd.Flags().GetString("first-name")
		in.LastName, _ = cmd.Flags().GetString("last-name")
		if err := promptRegistration(newPrompter(cmd), in); err != nil {
			return err
		}
		u, err := app.api.Register(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "account %s created; run `ims login` to sign in\n", u.Username)
		return nil
	},
}

func promptRegistration(p *ui.Prompter, in *model.Registration) error {
	var err error
	if in.Username == "" {
		if in.Username, err = p.Line("Username"); err != nil {
			return err
		}
	}
	if in.Email == "" {
		if in.Email, err = p.Line("Email"); err != nil {
			return err
		}
	}
	if in.Password, err = p.Password("Password"); err != nil {
		return err
	}
	confirm, err := p.Password("Confirm password")
	if err != nil {
		return err
	}
	if confirm != in.Password {
		return &model.ValidationError{Errors: []model.FieldError{{Field: "password", Message: "passwords do not match"}}}
	}
	return nil
}

var passwordResetCmd = &cobra.Command{
	Use:     "password-reset",
	Short:   "Reset a forgotten password",
	GroupID: "account",
}

var passwordResetRequestCmd = &cobra.Command{
	Use:   "request <email>",
	Short: "Email a reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := app.api.RequestPasswordReset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "confirm <token>",
	Short: "Set a new password using the emailed token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		pw, err := p.Password("New password")
		if err != nil {
			return err
		}
		msg, err := app.api.ConfirmPasswordReset(cmd.Context(), &model.PasswordResetConfirm{Token: args[0], NewPassword: pw})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the signed-in user",
	GroupID:     "account",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "profile"},
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		if offline {
			return printClaims(cmd, app.session)
		}
		u, err := app.api.Profile(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), u)
		}
		printUser(cmd.OutOrStdout(), u)
		return nil
	},
}

// printClaims shows what the stored token says about itself without asking
// the backend. The token is not verified.
func printClaims(cmd *cobra.Command, s *session.Store) error {
	c, err := s.Claims()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "User ID:     %s\n", c.UserID)
	if c.TokenType != "" {
		fmt.Fprintf(w, "Token type:  %s\n", c.TokenType)
	}
	if !c.ExpiresAt.IsZero() {
		status := "valid"
		if c.Expired(time.Now()) {
			status = ui.RenderWarn("expired")
		}
		fmt.Fprintf(w, "Expires:     %s (%s)\n", c.ExpiresAt.Local().Format(timeLayout), status)
	}
	return nil
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username (prompted when omitted)")

	registerCmd.Flags().StringP("username", "u", "", "username")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")

	passwordResetCmd.AddCommand(passwordResetRequestCmd, passwordResetConfirmCmd)

	whoamiCmd.Flags().Bool("offline", false, "decode the stored token instead of asking the server")
}
