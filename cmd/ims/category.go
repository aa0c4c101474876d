package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/model"
)

var categoryCmd = &cobra.Command{
	Use:         "category",
	Aliases:     []string{"categories"},
	Short:       "Manage categories",
	GroupID:     "inventory",
	Annotations: map[string]string{annotationRoute: "categories"},
}

var categoryListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List categories",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "categories"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := app.api.ListCategories(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cats)
		}
		printCategoryTable(cmd.OutOrStdout(), cats)
		return nil
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "categories"},
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		c, err := app.api.CreateCategory(cmd.Context(), &model.CategoryInput{Name: args[0], Description: desc})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created category %d (%s)\n", c.ID, c.Name)
		return nil
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:         "update <id>",
	Short:       "Rename or describe a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "categories"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cur, err := app.api.GetCategory(cmd.Context(), id)
		if err != nil {
			return err
		}
		in := &model.CategoryInput{Name: cur.Name, Description: cur.Description}
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("description") {
			in.Description, _ = cmd.Flags().GetString("description")
		}
		c, err := app.api.UpdateCategory(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated category %d (%s)\n", c.ID, c.Name)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a category that has no products",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "categories"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.api.SafeDeleteCategory(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted category %d\n", id)
		return nil
	},
}

func init() {
	categoryCreateCmd.Flags().StringP("description", "d", "", "description")
	categoryUpdateCmd.Flags().String("name", "", "new name")
	categoryUpdateCmd.Flags().StringP("description", "d", "", "new description")

	categoryCmd.AddCommand(categoryListCmd, categoryCreateCmd, categoryUpdateCmd, categoryDeleteCmd)
}
