package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/model"
)

var profileCmd = &cobra.Command{
	Use:         "profile",
	Short:       "Show or update your profile",
	GroupID:     "account",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "profile"},
	RunE: func(cmd *cobra.Command, args []string) error {
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

var profileUpdateCmd = &cobra.Command{
	Use:         "update",
	Short:       "Change profile fields",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "profile"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var upd model.ProfileUpdate
		for flag, dst := range map[string]**string{
			"username":   &upd.Username,
			"email":      &upd.Email,
			"first-name": &upd.FirstName,
			"last-name":  &upd.LastName,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = &v
			}
		}
		u, err := app.api.UpdateProfile(cmd.Context(), upd)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "profile updated")
		printUser(cmd.OutOrStdout(), u)
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().String("username", "", "new username")
	profileUpdateCmd.Flags().String("email", "", "new email address")
	profileUpdateCmd.Flags().String("first-name", "", "new first name")
	profileUpdateCmd.Flags().String("last-name", "", "new last name")
	profileCmd.AddCommand(profileUpdateCmd)
}
