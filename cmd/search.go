package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/radar-map/internal/mapview"
	"github.com/sells-group/radar-map/pkg/geocode"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search addresses in the configured region",
	Long:  "With an argument, runs one search. Without one, reads queries line by line from stdin through the debounced searcher.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newGeocoder()
		if len(args) > 0 {
			return searchOnce(cmd.Context(), cmd.OutOrStdout(), client, strings.Join(args, " "))
		}
		return searchInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), client,
			time.Duration(cfg.Map.DebounceMs)*time.Millisecond)
	},
}

func newGeocoder() geocode.Client {
	return geocode.NewClient(geocoderOptions(cfg)...)
}

func searchOnce(ctx context.Context, w io.Writer, client geocode.Client, query string) error {
	places, err := client.Search(ctx, query)
	if err != nil {
		return err
	}
	printPlaces(w, places)
	return nil
}

func printPlaces(w io.Writer, places []geocode.Place) {
	if len(places) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for _, p := range places {
		fmt.Fprintf(w, "%.6f,%.6f\t%s\n", p.Lat, p.Lon, p.DisplayName)
	}
}

// searchInteractive feeds each stdin line to a debounced Searcher, so only
// the last of a burst of lines is sent upstream. Once input ends it waits for
// the result of the last line.
func searchInteractive(ctx context.Context, r io.Reader, w io.Writer, client geocode.Client, debounce time.Duration) error {
	results := make(chan mapview.SearchResult, 8)
	s := mapview.NewSearcher(ctx, client, debounce, func(res mapview.SearchResult) {
		results <- res
	})
	defer s.Close()

	var (
		last     uint64
		lastErr  error
		finished bool
	)
	handle := func(res mapview.SearchResult) {
		printResult(w, res)
		if res.Seq == last {
			finished = true
			lastErr = res.Err
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		last = s.Type(scanner.Text())
		finished = false
		drain(results, handle)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if last == 0 {
		return nil
	}

	for !finished {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			handle(res)
		}
	}
	return lastErr
}

func drain(results <-chan mapview.SearchResult, handle func(mapview.SearchResult)) {
	for {
		select {
		case res := <-results:
			handle(res)
		default:
			return
		}
	}
}

// printResult prints res. Empty results from short queries print nothing.
func printResult(w io.Writer, res mapview.SearchResult) {
	if res.Err != nil {
		fmt.Fprintf(w, "search %q failed: %v\n", res.Query, res.Err)
		return
	}
	if len([]rune(strings.TrimSpace(res.Query))) < geocode.MinQueryLength {
		return
	}
	fmt.Fprintf(w, "> %s\n", res.Query)
	printPlaces(w, res.Places)
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
