package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/config"
	"github.com/alfredjeanlab/ims/internal/guard"
	"github.com/alfredjeanlab/ims/internal/ui"
)

// Command annotations read by the root pre-run hook.
const (
	// annotationRoute names the screen a command shows; protected screens
	// need a session.
	annotationRoute = "ims/route"
	// annotationLocal marks commands that never talk to the backend.
	annotationLocal = "ims/local"
)

var (
	apiURL     string
	jsonOutput bool
	verbose    bool
	noColor    bool

	cfg *config.Config
	app *App
)

var rootCmd = &cobra.Command{
	Use:           "ims <command>",
	Short:         "Client for the Inventory Management System",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor(cmd.OutOrStdout()) {
			ui.ForceNoColor()
		}
		if isLocal(cmd) {
			return nil
		}
		a, err := newApp(cfg, resolveAPIURL(cmd), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		app = a
		return requireRoute(cmd, app.guard)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
			app = nil
		}
	},
}

func isLocal(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationLocal] == "true" {
			return true
		}
	}
	return false
}

// requireRoute refuses protected commands before any request is sent.
func requireRoute(cmd *cobra.Command, g *guard.Guard) error {
	name, ok := cmd.Annotations[annotationRoute]
	if !ok {
		return nil
	}
	r := routeForCommand(name)
	if err := g.Require(r); err != nil {
		return fmt.Errorf("%w (run `ims login` first)", err)
	}
	return nil
}

// resolveAPIURL picks the backend: --api-url, then IMS_API_URL, then the
// active remote, then the default.
func resolveAPIURL(cmd *cobra.Command) string {
	if cmd.Flags().Changed("api-url") {
		return apiURL
	}
	if os.Getenv("IMS_API_URL") != "" {
		return cfg.APIURL
	}
	if u := activeRemote(cfg).URL; u != "" {
		return u
	}
	return cfg.APIURL
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", config.DefaultAPIURL, "backend base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "inventory", Title: "Inventory:"},
		&cobra.Group{ID: "insights", Title: "Insights:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Account
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(passwordResetCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)

	// Inventory
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(stockCmd)

	// Insights
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(predictCmd)

	// System
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		if errors.Is(err, guard.ErrLoginRequired) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
