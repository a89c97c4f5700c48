package cmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the current settings",
	Long: `Show the settings the viewer uses, read from the settings file.

A missing file shows the defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := settingsPath()
		s, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (showing defaults)\n", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", path)
		return toml.NewEncoder(out).Encode(s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save the file. A running viewer picks up the change.

Keys: ` + strings.Join(config.Keys(), ", "),
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.NewStore(settingsPath())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (starting from defaults)\n", err)
		}
		if err := store.Update(func(s *config.Settings) error {
			return s.Set(args[0], args[1])
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], store.Path())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}
