package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var grantUnchecked bool

var grantCmd = &cobra.Command{
	Use:   "grant USER",
	Short: "Claim a key for USER and print it",
	Long:  "Claim a key for USER and print it. With --unchecked the once-per-round rule is skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		claim := b.Ledger.Claim
		if grantUnchecked {
			claim = b.Ledger.ClaimUnchecked
		}
		key, err := claim(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", key)
		return nil
	},
}

func init() {
	grantCmd.Flags().BoolVar(&grantUnchecked, "unchecked", false, "skip the once-per-round check")
}
