package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/app"
	"github.com/Tiliavir/litt/internal/harvest"
)

func newSyncCmd(o *rootOptions) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push records to external services",
	}

	var (
		dryRun  bool
		baseURL string
	)
	harvestCmd := &cobra.Command{
		Use:   "harvest",
		Short: "Create Harvest time entries for records not yet synced",
		Long: `Create a Harvest time entry for every record without a HarvestEntryId tag.
The alias sharing most tags with a record supplies its HarvestProject:<id>
and HarvestTask:<id> tags. Synced records are tagged HarvestEntryId:<id>.

Credentials come from $HARVEST_PERSONAL_ACCESS_TOKEN and $HARVEST_ACCOUNT_ID,
optionally set in <dir>/.env. Without them nothing is sent.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			return runHarvestSync(cmd, a, dryRun, baseURL)
		},
	}
	harvestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be sent without calling Harvest")
	harvestCmd.Flags().StringVar(&baseURL, "base-url", harvest.DefaultBaseURL, "Harvest API root")

	syncCmd.AddCommand(harvestCmd)
	return syncCmd
}

func runHarvestSync(cmd *cobra.Command, a *app.App, dryRun bool, baseURL string) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	creds, err := harvest.LoadCredentials(a.Paths.Env)
	if err != nil {
		return err
	}
	var client harvest.EntryCreator
	if creds.Complete() {
		client = harvest.NewClient(ctx, creds, harvest.WithBaseURL(baseURL))
	} else if !dryRun {
		fmt.Fprintf(stderr, "%s or %s not set, reporting only.\n", harvest.EnvToken, harvest.EnvAccountID)
	}

	dryTag := ""
	if dryRun || client == nil {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(stderr, "Syncing records to Harvest%s...\n\n", dryTag)

	var result harvest.SyncResult
	err = a.Run(ctx, func(s *app.Session) (any, error) {
		var serr error
		result, serr = harvest.Sync(ctx, s.Ledger(), client, harvest.SyncOptions{
			DryRun:   dryRun,
			Location: time.Local,
			Out:      stderr,
		})
		if serr != nil {
			return nil, serr
		}
		return result.Images, nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, "Summary:")
	fmt.Fprintf(stderr, "  %d synced\n", result.Synced)
	fmt.Fprintf(stderr, "  %d already synced\n", result.AlreadySynced)
	fmt.Fprintf(stderr, "  %d skipped\n", result.Skipped)
	if result.Errors > 0 {
		fmt.Fprintf(stderr, "  %d errors\n", result.Errors)
		return fmt.Errorf("%d records failed to sync", result.Errors)
	}
	return nil
}
