package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/radar-map/internal/model"
)

var (
	fetchLimit  int
	fetchFormat string
)

var fetchCmd = &cobra.Command{
	Use:       "fetch radars|cameras",
	Short:     "Download and parse a feed directly from upstream, bypassing the cache",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.DatasetRadars), string(model.DatasetCameras)},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := model.ParseDataset(args[0])
		if !ok {
			return eris.Errorf("unknown dataset %q", args[0])
		}
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		feeds := newFeedClient(cfg)
		var records any
		switch d {
		case model.DatasetRadars:
			radars, err := feeds.Radars(cmd.Context())
			if err != nil {
				return err
			}
			records = limitRecords(radars, fetchLimit)
		case model.DatasetCameras:
			cameras, err := feeds.Cameras(cmd.Context())
			if err != nil {
				return err
			}
			records = limitRecords(cameras, fetchLimit)
		}
		return writeRecords(cmd.OutOrStdout(), records, fetchFormat)
	},
}

// limitRecords returns at most n records; n <= 0 means all.
func limitRecords[T any](records []T, n int) []T {
	if records == nil {
		records = []T{}
	}
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}

// writeRecords encodes v as indented JSON or YAML.
func writeRecords(w io.Writer, v any, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}

func init() {
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "maximum number of records to print (0 = all)")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(fetchCmd)
}
