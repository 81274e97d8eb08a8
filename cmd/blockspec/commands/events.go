package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nio-blocks/blockspec/pkg/log"
)

// EventsOptions configures the events command.
type EventsOptions struct {
	Kind    string
	BlockID string
	LoadID  string
	Since   time.Duration
	JSON    bool
	File    string
}

// RunEvents prints the events of a catalog event log, optionally filtered.
func RunEvents(args []string, stdout, stderr io.Writer) int {
	opts, err := parseEventsArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printEventsUsage)
	}

	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no log file specified")
		printEventsUsage(stderr)
		return exitCommandError
	}

	filter, err := buildFilter(opts, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	reader, err := log.NewFilteredReader(opts.File, filter)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to open log file: %v\n", err)
		return exitCommandError
	}
	defer reader.Close()

	enc := json.NewEncoder(stdout)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to read event: %v\n", err)
			return exitCommandError
		}

		if opts.JSON {
			if err := enc.Encode(event); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return exitCommandError
			}
			continue
		}
		fmt.Fprintln(stdout, formatEvent(event))
	}
	return exitSuccess
}

func buildFilter(opts EventsOptions, now time.Time) (log.Filter, error) {
	filter := log.Filter{
		BlockID: opts.BlockID,
		LoadID:  opts.LoadID,
	}
	if opts.Kind != "" {
		k, ok := log.ParseKind(opts.Kind)
		if !ok {
			return filter, fmt.Errorf("unknown event kind %q", opts.Kind)
		}
		filter.Kind = &k
	}
	if opts.Since > 0 {
		start := now.Add(-opts.Since)
		filter.TimeStart = &start
	}
	return filter, nil
}

// formatEvent renders an event as a single line.
func formatEvent(ev log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-8s", ev.Timestamp.Format(time.RFC3339), ev.Kind)
	if ev.BlockID != "" {
		fmt.Fprintf(&b, " %s", ev.BlockID)
	}
	if ev.Version != "" {
		fmt.Fprintf(&b, " v%s", ev.Version)
	}
	if ev.Changed {
		b.WriteString(" (changed)")
	}
	if ev.Source != "" {
		fmt.Fprintf(&b, " [%s]", ev.Source)
	}
	if len(ev.Missing) > 0 {
		fmt.Fprintf(&b, " missing=%s", strings.Join(ev.Missing, ","))
	}
	if ev.Message != "" {
		fmt.Fprintf(&b, " %s", ev.Message)
	}
	return b.String()
}

func parseEventsArgs(args []string) (EventsOptions, error) {
	fs := newFlagSet("events")
	opts := EventsOptions{}

	fs.StringVar(&opts.Kind, "kind", "", "Only events of this kind: loaded, rejected, warning, removed")
	fs.StringVar(&opts.BlockID, "block", "", "Only events about this block")
	fs.StringVar(&opts.LoadID, "load", "", "Only events of this load")
	fs.DurationVar(&opts.Since, "since", 0, "Only events newer than this duration")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON lines")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.File = rest[0]
	}
	if len(rest) > 1 {
		return opts, fmt.Errorf("unexpected arguments: %v", rest[1:])
	}
	return opts, nil
}

func printEventsUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec events [options] <logfile>

Options:
  --kind   Only events of this kind: loaded, rejected, warning, removed
  --block  Only events about this block
  --load   Only events of one load (LoadID)
  --since  Only events newer than a duration, e.g. 1h
  --json   Output JSON lines

Examples:
  blockspec events catalog.cbor
  blockspec events --kind rejected --since 24h catalog.cbor`)
}
