package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/restq/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryEntry is one journaled exchange as printed by history.
type HistoryEntry struct {
	Seq         int64     `json:"seq"`
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	Status      int       `json:"status"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled exchanges",
		Long: `List exchanges recorded in the SQLite journal, newest first.

Examples:
  restq history --journal ./restq.db
  restq history --journal ./restq.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of exchanges")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	out := opts.formatter(cmd)

	path := opts.cfg.Journal.Path
	if path == "" {
		return out.Fail("history", NewExitError(ExitCommandError, "no journal: set --journal or journal.path"))
	}

	store, err := journal.Open(path)
	if err != nil {
		return out.Fail("history", WrapExitError(ExitCommandError, "open journal", err))
	}
	defer store.Close()

	exchanges, err := store.List(cmd.Context(), opts.Limit)
	if err != nil {
		return out.Fail("history", err)
	}

	entries := make([]HistoryEntry, len(exchanges))
	for i, ex := range exchanges {
		entries[i] = HistoryEntry{
			Seq:         ex.Seq,
			Method:      ex.Method,
			URL:         ex.URL,
			Status:      ex.Status,
			DurationMS:  ex.Duration.Milliseconds(),
			Error:       ex.Error,
			Fingerprint: ex.Fingerprint,
			RecordedAt:  ex.RecordedAt,
		}
	}

	if opts.Format == "json" {
		return out.Success(entries)
	}
	return out.Success(formatHistory(entries))
}

func formatHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "No exchanges recorded."
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tMETHOD\tSTATUS\tDURATION\tURL")
	for _, e := range entries {
		status := fmt.Sprint(e.Status)
		if e.Error != "" && e.Status == 0 {
			status = "error"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%dms\t%s\n", e.Seq, e.Method, status, e.DurationMS, e.URL)
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
