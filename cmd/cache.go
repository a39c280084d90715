package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/radar-map/internal/cache"
	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the feed cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether each dataset is cached and its remaining TTL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg, "cache")
		if err != nil {
			return err
		}
		defer env.Close()
		return printCacheStatus(cmd.Context(), cmd.OutOrStdout(), env.Store)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [radars|cameras]",
	Short: "Invalidate one dataset, or both when none is given",
	Long:  "Invalidates one dataset, or both when none is given, then purges expired entries from SQL and in-memory stores.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets, err := datasetArgs(args)
		if err != nil {
			return err
		}
		env, err := initEnv(cmd.Context(), cfg, "cache")
		if err != nil {
			return err
		}
		defer env.Close()
		if err := clearDatasets(cmd.Context(), cmd.OutOrStdout(), env, datasets); err != nil {
			return err
		}
		return purgeExpired(cmd.Context(), cmd.OutOrStdout(), env.Store)
	},
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm [radars|cameras]",
	Short: "Fetch from upstream and repopulate the cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets, err := datasetArgs(args)
		if err != nil {
			return err
		}
		env, err := initEnv(cmd.Context(), cfg, "cache")
		if err != nil {
			return err
		}
		defer env.Close()
		return warmDatasets(cmd.Context(), cmd.OutOrStdout(), env, datasets)
	},
}

// datasetArgs resolves an optional dataset argument; no argument means all.
func datasetArgs(args []string) ([]model.Dataset, error) {
	if len(args) == 0 {
		return model.Datasets, nil
	}
	d, ok := model.ParseDataset(args[0])
	if !ok {
		return nil, eris.Errorf("unknown dataset %q", args[0])
	}
	return []model.Dataset{d}, nil
}

func printCacheStatus(ctx context.Context, w io.Writer, st store.Store) error {
	status, err := cache.Status(ctx, st)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tCACHED\tTTL_SECONDS\tTTL_HOURS")
	for _, d := range model.Datasets {
		s := status[d]
		fmt.Fprintf(tw, "%s\t%t\t%d\t%.1f\n", d, s.Cached, s.TTLSeconds, s.TTLHours)
	}
	return tw.Flush()
}

func clearDatasets(ctx context.Context, w io.Writer, env *appEnv, datasets []model.Dataset) error {
	for _, d := range datasets {
		var err error
		switch d {
		case model.DatasetRadars:
			err = env.Radars.Invalidate(ctx)
		case model.DatasetCameras:
			err = env.Cameras.Invalidate(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "cleared %s\n", d)
	}
	return nil
}

// purgeExpired removes expired entries, geocode results included, from stores
// that do not expire keys on their own.
func purgeExpired(ctx context.Context, w io.Writer, st store.Store) error {
	p, ok := st.(store.Purger)
	if !ok {
		return nil
	}
	n, err := p.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "purged %d expired entries\n", n)
	return nil
}

// warmDatasets refreshes the datasets concurrently. A failing dataset does
// not stop the others; all errors are reported together.
func warmDatasets(ctx context.Context, w io.Writer, env *appEnv, datasets []model.Dataset) error {
	counts := make([]int, len(datasets))
	errs := make([]error, len(datasets))

	var g errgroup.Group
	for i, d := range datasets {
		g.Go(func() error {
			switch d {
			case model.DatasetRadars:
				data, err := env.Radars.Warm(ctx)
				counts[i], errs[i] = len(data), err
			case model.DatasetCameras:
				data, err := env.Cameras.Warm(ctx)
				counts[i], errs[i] = len(data), err
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, d := range datasets {
		if errs[i] != nil {
			zap.L().Error("cache warm failed", zap.String("dataset", string(d)), zap.Error(errs[i]))
			continue
		}
		fmt.Fprintf(w, "warmed %s: %d records\n", d, counts[i])
	}
	return errors.Join(errs...)
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cacheWarmCmd)
	rootCmd.AddCommand(cacheCmd)
}
