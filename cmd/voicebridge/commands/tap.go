package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/pkg/buffer"
	"github.com/haivivi/voicebridge/pkg/cli"
	"github.com/haivivi/voicebridge/pkg/tap"
)

var (
	flagDumpFilter   string
	flagDumpTail     int
	flagDumpJSON     bool
	flagDumpPayloads bool
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Inspect frame captures",
}

var tapDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Pretty-print a frame capture",
	Long: `Pretty-print a frame capture produced by 'serve --tap'.

Bare file names resolve under ~/.voicebridge/taps/. Records can be
narrowed with a jq expression evaluated against each record object;
records producing a truthy value are kept.

Example:
  voicebridge tap dump dev.tap
  voicebridge tap dump dev.tap --filter '.event_name == "ChatResponse"'
  voicebridge tap dump dev.tap --filter '.dir == "up" and .payload_size > 0'
  voicebridge tap dump dev.tap --tail 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTapDump,
}

func init() {
	tapDumpCmd.Flags().StringVar(&flagDumpFilter, "filter", "", "jq expression over each record")
	tapDumpCmd.Flags().IntVar(&flagDumpTail, "tail", 0, "show only the last N matching records")
	tapDumpCmd.Flags().BoolVar(&flagDumpJSON, "json", false, "output records as JSON lines (for piping)")
	tapDumpCmd.Flags().BoolVar(&flagDumpPayloads, "payloads", false, "show captured payload heads")

	tapCmd.AddCommand(tapDumpCmd)
}

func runTapDump(cmd *cobra.Command, args []string) error {
	paths, err := cli.NewPaths()
	if err != nil {
		return err
	}

	f, err := os.Open(paths.TapPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	var filter *tap.Filter
	if flagDumpFilter != "" {
		filter, err = tap.NewFilter(flagDumpFilter)
		if err != nil {
			return err
		}
	}

	records, err := collectRecords(tap.NewReader(f), filter, flagDumpTail)
	if err != nil {
		return err
	}

	if flagDumpJSON {
		return dumpJSON(records)
	}
	return dumpTable(records)
}

// collectRecords reads the whole stream, applying the filter and keeping
// only the trailing window when tail > 0.
func collectRecords(r *tap.Reader, filter *tap.Filter, tail int) ([]*tap.Record, error) {
	var all []*tap.Record
	var ring *buffer.Ring[*tap.Record]
	if tail > 0 {
		ring = buffer.RingN[*tap.Record](tail)
	}

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tap record: %w", err)
		}
		if filter != nil {
			ok, err := filter.Match(rec)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if ring != nil {
			ring.Add(rec)
		} else {
			all = append(all, rec)
		}
	}

	if ring != nil {
		return ring.Items(), nil
	}
	return all, nil
}

func dumpJSON(records []*tap.Record) error {
	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if !flagDumpPayloads {
			rec.PayloadHead = nil
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func dumpTable(records []*tap.Record) error {
	if len(records) == 0 {
		fmt.Println("No records")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDIR\tBRIDGE\tEVENT\tSESSION\tSIZE")

	for _, rec := range records {
		ts := time.Unix(0, rec.Timestamp).Format("15:04:05.000")
		event := rec.EventName
		if rec.ErrorCode != 0 {
			event = fmt.Sprintf("error(%d)", rec.ErrorCode)
		} else if event == "" {
			event = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ts, rec.Direction, shortBridgeID(rec.Bridge), event, rec.SessionID,
			cli.FormatBytes(int64(rec.PayloadSize)))
		if flagDumpPayloads && len(rec.PayloadHead) > 0 {
			fmt.Fprintf(w, "\t\t\t  %q\t\t\n", rec.PayloadHead)
		}
	}

	return w.Flush()
}

// shortBridgeID abbreviates a bridge UUID for table display.
func shortBridgeID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
