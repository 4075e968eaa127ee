package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/history"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		kind    string
		limit   int
		asJSON  bool
		timeout time.Duration
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent connectivity transitions or probe results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, err := resolveDataDir(v)
			if err != nil {
				return err
			}

			k := history.Kind(kind)
			if k != history.KindTransition && k != history.KindProbe {
				return fmt.Errorf("unknown kind %q (expected %s or %s)", kind, history.KindTransition, history.KindProbe)
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(filepath.Join(dataDir, history.FileName)); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}

			store, err := history.Open(dataDir, zap.NewNop(), history.Options{ReadOnly: true, Timeout: timeout})
			if err != nil {
				if errors.Is(err, history.ErrInUse) {
					return fmt.Errorf("%w; use the diagnostics server's /history endpoint while the shell runs", err)
				}
				return err
			}
			defer store.Close()

			records, err := store.List(k, limit)
			if err != nil {
				return err
			}

			if asJSON {
				if records == nil {
					records = []history.Record{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}
			return printRecords(out, k, records)
		},
	}

	historyCmd.Flags().StringVarP(&kind, "kind", "k", string(history.KindTransition), "Record kind: transition or probe")
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	historyCmd.Flags().DurationVar(&timeout, "lock-timeout", time.Second, "How long to wait for the journal lock")
	return historyCmd
}

func printRecords(out io.Writer, kind history.Kind, records []history.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if kind == history.KindProbe {
		fmt.Fprintln(w, "TIME\tENDPOINT\tTIER\tOUTCOME\tSTATUS\tLATENCY\tCAUSE")
		for _, r := range records {
			status := "-"
			if r.StatusCode > 0 {
				status = fmt.Sprintf("%d", r.StatusCode)
			}
			cause := r.Cause
			if cause == "" {
				cause = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dms\t%s\n",
				r.Timestamp.Local().Format(time.RFC3339), r.Endpoint, r.Tier, r.Outcome, status, r.LatencyMs, cause)
		}
		return w.Flush()
	}

	fmt.Fprintln(w, "TIME\tFROM\tTO\tEVENT\tENDPOINT")
	for _, r := range records {
		endpoint := r.URL
		if endpoint == "" {
			endpoint = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format(time.RFC3339), r.From, r.To, r.Event, endpoint)
	}
	return w.Flush()
}
