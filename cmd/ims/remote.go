package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/config"
	"github.com/alfredjeanlab/ims/internal/session"
)

// RemotesConfig holds all named backends and tracks which one is active.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named backend profile. Tokens are never stored here; the
// session file holds the one token for the active backend.
type Remote struct {
	URL     string `toml:"url"`
	NATSURL string `toml:"nats_url,omitempty"`
}

func loadRemotesConfig(path string) (RemotesConfig, error) {
	var rc RemotesConfig
	if _, err := toml.DecodeFile(path, &rc); err != nil {
		if os.IsNotExist(err) {
			return RemotesConfig{Remotes: map[string]Remote{}}, nil
		}
		return RemotesConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if rc.Remotes == nil {
		rc.Remotes = map[string]Remote{}
	}
	return rc, nil
}

func saveRemotesConfig(path string, rc RemotesConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(rc)
}

// activeRemote returns the selected remote, or a zero Remote when none is
// selected or the file cannot be read.
func activeRemote(c *config.Config) Remote {
	if c == nil {
		return Remote{}
	}
	rc, err := loadRemotesConfig(c.RemotesPath())
	if err != nil || rc.Active == "" {
		return Remote{}
	}
	return rc.Remotes[rc.Active]
}

// forgetSession drops the stored token. It is called whenever the active
// backend changes, since a token is only valid for the backend that issued it.
func forgetSession(c *config.Config, logOut io.Writer) error {
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := session.Open(session.NewFileStorage(c.SessionPath()), logger)
	if err != nil {
		return err
	}
	return store.Logout()
}

var remoteCmd = &cobra.Command{
	Use:         "remote",
	Short:       "Manage named backends",
	GroupID:     "system",
	Annotations: map[string]string{annotationLocal: "true"},
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		natsURL, _ := cmd.Flags().GetString("nats")

		rc, err := loadRemotesConfig(cfg.RemotesPath())
		if err != nil {
			return err
		}
		rc.Remotes[name] = Remote{URL: url, NATSURL: natsURL}
		if err := saveRemotesConfig(cfg.RemotesPath(), rc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q added (%s)\n", name, url)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		rc, err := loadRemotesConfig(cfg.RemotesPath())
		if err != nil {
			return err
		}
		if _, ok := rc.Remotes[name]; !ok {
			return fmt.Errorf("remote %q not found", name)
		}
		delete(rc.Remotes, name)
		wasActive := rc.Active == name
		if wasActive {
			rc.Active = ""
		}
		if err := saveRemotesConfig(cfg.RemotesPath(), rc); err != nil {
			return err
		}
		if wasActive {
			if err := forgetSession(cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := loadRemotesConfig(cfg.RemotesPath())
		if err != nil {
			return err
		}
		if len(rc.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes configured")
			return nil
		}
		names := make([]string, 0, len(rc.Remotes))
		for name := range rc.Remotes {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tURL\tNATS")
		for _, name := range names {
			marker := "  "
			if name == rc.Active {
				marker = "* "
			}
			r := rc.Remotes[name]
			fmt.Fprintf(w, "%s%s\t%s\t%s\n", marker, name, r.URL, r.NATSURL)
		}
		return w.Flush()
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active remote (signs you out)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		rc, err := loadRemotesConfig(cfg.RemotesPath())
		if err != nil {
			return err
		}
		if _, ok := rc.Remotes[name]; !ok {
			return fmt.Errorf("remote %q not found", name)
		}
		if rc.Active == name {
			fmt.Fprintf(cmd.OutOrStdout(), "active remote is already %q\n", name)
			return nil
		}
		rc.Active = name
		if err := saveRemotesConfig(cfg.RemotesPath(), rc); err != nil {
			return err
		}
		if err := forgetSession(cfg, cmd.ErrOrStderr()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active remote set to %q; run `ims login` to sign in\n", name)
		return nil
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show details for a remote (defaults to active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := loadRemotesConfig(cfg.RemotesPath())
		if err != nil {
			return err
		}
		name := rc.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active remote; specify a name or run `ims remote use <name>`")
		}
		r, ok := rc.Remotes[name]
		if !ok {
			return fmt.Errorf("remote %q not found", name)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Name:    %s\n", name)
		fmt.Fprintf(w, "URL:     %s\n", r.URL)
		if r.NATSURL != "" {
			fmt.Fprintf(w, "NATS:    %s\n", r.NATSURL)
		}
		fmt.Fprintf(w, "Active:  %v\n", name == rc.Active)
		return nil
	},
}

func init() {
	remoteAddCmd.Flags().String("nats", "", "NATS URL for events from this backend")
	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteListCmd, remoteUseCmd, remoteShowCmd)
}
