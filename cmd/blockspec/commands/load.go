package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/nio-blocks/blockspec/pkg/catalog"
	"github.com/nio-blocks/blockspec/pkg/log"
)

// CatalogOptions selects the sources and loggers of a catalog.
type CatalogOptions struct {
	Dir       string
	NoBuiltin bool
	Strict    bool
	EventLog  string
	Verbose   bool
}

// openCatalog builds a catalog from opts. Events go to stderr through slog
// when Verbose is set, and to the CBOR event log when one is named. The
// returned close function flushes the event log.
func openCatalog(opts CatalogOptions, stderr io.Writer) (*catalog.Catalog, func() error, error) {
	var loggers []log.Logger
	closeFn := func() error { return nil }

	if opts.Verbose {
		handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}
	if opts.EventLog != "" {
		fl, err := log.NewFileLogger(opts.EventLog)
		if err != nil {
			return nil, nil, fmt.Errorf("opening event log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = fl.Close
	}

	var copts []catalog.Option
	if !opts.NoBuiltin {
		copts = append(copts, catalog.WithSource(catalog.Builtin()))
	}
	if opts.Dir != "" {
		copts = append(copts, catalog.WithSource(catalog.NewDirSource(opts.Dir)))
	}
	if opts.Strict {
		copts = append(copts, catalog.WithStrict())
	}
	copts = append(copts, catalog.WithLogger(log.NewMultiLogger(loggers...)))

	return catalog.New(copts...), closeFn, nil
}

func (o *CatalogOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Dir, "dir", "", "Catalog directory (default $"+EnvDir+")")
	fs.BoolVar(&o.NoBuiltin, "no-builtin", false, "Do not include the builtin blocks")
	fs.BoolVar(&o.Strict, "strict", false, "Fail if any document is rejected")
	fs.StringVar(&o.EventLog, "events", "", "Append load events to this CBOR log file")
	fs.BoolVar(&o.Verbose, "verbose", false, "Log load events to stderr")
}

// LoadOptions configures the load command.
type LoadOptions struct {
	CatalogOptions
	JSON bool
}

// LoadOutput is the JSON form of a load report.
type LoadOutput struct {
	LoadID   string         `json:"load_id"`
	Loaded   []string       `json:"loaded"`
	Rejected []RejectOutput `json:"rejected,omitempty"`
	Warnings []IssueOutput  `json:"warnings,omitempty"`
}

// RejectOutput describes one rejected document.
type RejectOutput struct {
	Document string        `json:"document"`
	Errors   []IssueOutput `json:"errors"`
}

// RunLoad loads a catalog once and prints its report. It exits with 2 when
// a document was rejected.
func RunLoad(args []string, stdout, stderr io.Writer) int {
	opts, err := parseLoadArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printLoadUsage)
	}
	opts.Dir = dirFromEnv(opts.Dir)

	cat, closeLog, err := openCatalog(opts.CatalogOptions, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer closeLog()

	// A reload error without rejections means a source could not be read.
	report, err := cat.Reload(context.Background())
	if err != nil && len(report.Rejected) == 0 {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.JSON {
		data, _ := json.MarshalIndent(loadOutput(report), "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else {
		printLoadReport(stdout, cat, report)
	}

	if !report.OK() {
		return exitValidation
	}
	return exitSuccess
}

func loadOutput(r *catalog.Report) LoadOutput {
	out := LoadOutput{LoadID: r.LoadID, Loaded: r.Loaded}
	for _, rej := range r.Rejected {
		out.Rejected = append(out.Rejected, RejectOutput{
			Document: rej.Document,
			Errors:   issuesFromError(rej.Err),
		})
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, IssueOutput{
			Code:    "EXAMPLE",
			Block:   w.Block,
			Path:    w.Path,
			Message: w.Message,
		})
	}
	return out
}

func printLoadReport(w io.Writer, cat *catalog.Catalog, r *catalog.Report) {
	fmt.Fprintf(w, "Load %s: %d blocks, %d rejected, %d warnings\n",
		r.LoadID, len(r.Loaded), len(r.Rejected), len(r.Warnings))
	for _, id := range r.Loaded {
		src, _ := cat.SourceOf(id)
		if d, ok := cat.Get(id); ok {
			fmt.Fprintf(w, "  %-24s %-8s %s\n", id, d.Version, src)
		}
	}
	for _, rej := range r.Rejected {
		fmt.Fprintf(w, "  REJECTED %s\n", rej.Document)
		for _, issue := range issuesFromError(rej.Err) {
			fmt.Fprintf(w, "    %s\n", formatIssue(issue))
		}
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  WARNING %s\n", warn)
	}
}

func parseLoadArgs(args []string) (LoadOptions, error) {
	fs := newFlagSet("load")
	opts := LoadOptions{}
	opts.register(fs)
	fs.BoolVar(&opts.JSON, "json", false, "Output the report as JSON")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func printLoadUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec load [options]

Options:
  --dir         Catalog directory (default $BLOCKSPEC_DIR)
  --no-builtin  Do not include the builtin blocks
  --strict      Fail if any document is rejected
  --events      Append load events to a CBOR log file
  --verbose     Log load events to stderr
  --json        Output the report as JSON

Examples:
  blockspec load --dir blocks
  blockspec load --dir blocks --events catalog.cbor --json`)
}
