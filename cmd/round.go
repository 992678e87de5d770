package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Show or change the key round",
}

var roundOpenCmd = &cobra.Command{
	Use:   "open N",
	Short: "Complete the active round and open round N",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid round number %q", args[0])
		}

		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		if err := b.Rounds.Open(cmd.Context(), n); err != nil {
			return err
		}
		printf(cmd, "Round set to %d\n", n)
		return nil
	},
}

var roundShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every round and mark the active one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		rounds, err := b.Rounds.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rounds {
			printf(cmd, "%d\t%s\t%s\n", r.Number, r.Status, r.OpenedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	roundCmd.AddCommand(roundOpenCmd, roundShowCmd)
}
