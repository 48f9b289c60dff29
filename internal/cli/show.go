package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// maxCellWidth truncates long text values such as descriptions.
const maxCellWidth = 40

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		raw     bool
		history int
	)

	cmd := &cobra.Command{
		Use:   "show <snapshot>",
		Short: "Display a stored snapshot",
		Example: `  statsnap show dockerhub-stats
  statsnap show google-analytics-stats --history 10
  statsnap show github-stats --json | jq .totals`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshots,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), args[0], raw, history)
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "print the stored JSON document")
	cmd.Flags().IntVar(&history, "history", 5, "number of history entries to show")

	return cmd
}

// runShow executes the show command.
func (c *CLI) runShow(ctx context.Context, name string, raw bool, history int) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	data, ok, err := store.Load(ctx, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to load snapshot %s", name)
	}
	if !ok {
		return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found: %s", name)
	}
	if raw {
		_, err := out.Write(data)
		return err
	}

	doc, err := snapshot.DecodeAny(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "snapshot %s is corrupt", name)
	}

	fmt.Fprintln(out, styleTitle.Render(name))
	printKeyValue("last_updated", formatTimestamp(doc.LastUpdated))
	for _, k := range sortedKeys(doc.Meta) {
		printKeyValue(k, doc.Meta[k])
	}
	printNewline()
	for _, k := range sortedKeys(doc.Totals) {
		printKeyValue(k, styleNumber.Render(formatCount(doc.Totals[k])))
	}
	printNewline()
	fmt.Fprintln(out, renderRecords(doc))
	if history > 0 && len(doc.History) > 0 {
		printNewline()
		fmt.Fprintln(out, renderHistory(doc.History, history))
	}
	return nil
}

// renderRecords renders the records of doc as a table with one column per
// record field. Failed records show their error in the last column.
func renderRecords(doc *snapshot.Document) string {
	keys := sortedKeys(doc.Records)
	if len(keys) == 0 {
		return styleDim.Render("(no " + doc.RecordsKey + ")")
	}

	var columns []string
	hasError := false
	seen := map[string]bool{}
	for _, k := range keys {
		for field := range doc.Records[k] {
			if field == "error" {
				hasError = true
				continue
			}
			if !seen[field] {
				seen[field] = true
				columns = append(columns, field)
			}
		}
	}
	sort.Strings(columns)
	if hasError {
		columns = append(columns, "error")
	}

	rows := make([][]string, 0, len(keys))
	failed := make(map[int]bool)
	for i, k := range keys {
		rec := doc.Records[k]
		row := []string{k}
		for _, col := range columns {
			row = append(row, formatValue(rec[col]))
		}
		if _, isErr := rec.Err(); isErr {
			failed[i] = true
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers(append([]string{doc.RecordsKey}, columns...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case failed[row]:
				return styleError
			case col == 0:
				return styleValue
			}
			return lipgloss.NewStyle().Foreground(colorMuted)
		})
	return t.Render()
}

// renderHistory renders the newest limit history entries, newest first.
func renderHistory(history []snapshot.HistoryEntry, limit int) string {
	start := len(history) - limit
	if start < 0 {
		start = 0
	}
	entries := history[start:]

	var columns []string
	seen := map[string]bool{}
	for _, h := range entries {
		for k := range h.Totals {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		row := []string{formatTimestamp(entries[i].Timestamp)}
		for _, col := range columns {
			row = append(row, formatCount(entries[i].Totals[col]))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers(append([]string{"history"}, columns...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Foreground(colorMuted)
		}).
		Render()
}

// =============================================================================
// Formatting
// =============================================================================

// formatValue renders a record field for a table cell.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "—"
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return formatCount(i)
		}
		return v.String()
	case int64:
		return formatCount(v)
	case int:
		return formatCount(int64(v))
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format("Jan 2, 2006")
		}
		return truncate(v, maxCellWidth)
	default:
		return truncate(fmt.Sprint(v), maxCellWidth)
	}
}

// formatCount renders n with thousands separators.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatTimestamp renders a snapshot timestamp in local time.
func formatTimestamp(s string) string {
	t, err := time.Parse(snapshot.TimestampLayout, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
