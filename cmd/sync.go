package cmd

import (
	"time"

	"github.com/betakeys/keybot/internal/domain/ingest"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Add new keys from the configured sources once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBot(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer b.Close(5 * time.Second)

		sources, err := b.Sources(cmd.Context())
		if err != nil {
			return err
		}

		var total ingest.Result
		for _, src := range sources {
			res, err := b.Syncer.SyncSource(cmd.Context(), src)
			if err != nil {
				return err
			}
			printf(cmd, "%s: %d inserted, %d already present, %d skipped\n",
				src.Name(), res.Inserted, res.AlreadyPresent, res.Skipped)
			total.Inserted += res.Inserted
		}

		remaining, err := b.Ledger.Remaining(cmd.Context())
		if err != nil {
			return err
		}
		printf(cmd, "%d new keys, %d unclaimed\n", total.Inserted, remaining)
		return nil
	},
}
