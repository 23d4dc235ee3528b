package cli

import (
	"fmt"

	"github.com/ariel-frischer/issuelog/internal/cache"
	clierrors "github.com/ariel-frischer/issuelog/internal/errors"
	"github.com/ariel-frischer/issuelog/internal/output"
	"github.com/spf13/cobra"
)

func newCacheCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the event cache",
		Long: `Inspect or clear the event cache configured with --cache or the
'cache' config key.

The cache only speeds up later runs; clearing it is always safe.`,
		Example: `  # List cached events
  issuelog cache show -c .issuelog/events.yml

  # Remove the cache
  issuelog cache clear`,
	}
	cmd.AddCommand(newCacheShowCmd(o))
	cmd.AddCommand(newCacheClearCmd(o))
	return cmd
}

func newCacheShowCmd(o *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openConfiguredCache(cmd, o)
			if err != nil {
				return err
			}
			snap, err := store.Read(cmd.Context())
			if err != nil {
				return clierrors.WrapWithMessage(err, clierrors.Runtime,
					fmt.Sprintf("cannot read event cache: %s", store.Path()),
					"Run 'issuelog cache clear' to start over",
				)
			}
			events := snap.Events
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}

			rows := make([]output.EventRow, 0, len(events))
			for _, ev := range events {
				rows = append(rows, output.EventRow{
					ID:          ev.ID,
					Kind:        string(ev.Kind),
					Item:        ev.ItemNumber,
					PullRequest: ev.ItemIsPullRequest,
					Title:       ev.ItemTitle,
					CreatedAt:   ev.CreatedAt,
				})
			}
			output.RenderEventsTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many events (0 = all)")
	return cmd
}

func newCacheClearCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the event cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openConfiguredCache(cmd, o)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return clierrors.FileNotWritable(store.Path(), err)
			}
			output.PrintSuccess(cmd.OutOrStdout(), "Cleared event cache "+store.Path())
			return nil
		},
	}
}

// openConfiguredCache resolves the cache location from flags and config.
func openConfiguredCache(cmd *cobra.Command, o *rootOptions) (cache.Store, error) {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return nil, err
	}
	if cfg.Cache == "" {
		return nil, clierrors.NewArgumentError("no event cache configured",
			"Pass --cache <path>",
			"Or set it: issuelog config set cache .issuelog/events.yml",
		)
	}
	return cache.Open(cfg.Cache), nil
}
