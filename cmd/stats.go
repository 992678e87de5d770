package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of unclaimed keys and the active round",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		remaining, err := b.Ledger.Remaining(cmd.Context())
		if err != nil {
			return err
		}
		printf(cmd, "keys remaining: %d\n", remaining)

		n, ok, err := b.Rounds.Active(cmd.Context())
		if err != nil {
			return err
		}
		if ok {
			printf(cmd, "active round:   %d\n", n)
		} else {
			printf(cmd, "active round:   none\n")
		}
		return nil
	},
}
