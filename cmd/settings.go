package cmd

import (
	"fmt"
	"time"

	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change runtime settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		keys := settings.Keys()
		if len(args) == 1 {
			keys = args
		}
		for _, key := range keys {
			value, ok := b.Settings.Get(key)
			if !ok {
				if len(args) == 1 {
					return fmt.Errorf("setting %s is not set", key)
				}
				value = "(default)"
			}
			printf(cmd, "%s\t%s\n", key, value)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:       "set KEY VALUE",
	Short:     "Change a setting",
	Args:      cobra.ExactArgs(2),
	ValidArgs: settings.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		if err := b.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		printf(cmd, "%s set to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
