package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"github.com/nio-blocks/blockspec/pkg/catalog"
	"github.com/nio-blocks/blockspec/pkg/i2cbase"
)

// Shell executes interactive catalog commands.
type Shell struct {
	cat *catalog.Catalog
	out io.Writer
}

// NewShell creates a shell over cat that writes to out.
func NewShell(cat *catalog.Catalog, out io.Writer) *Shell {
	return &Shell{cat: cat, out: out}
}

// Exec runs one command line. It returns false when the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "list", "ls":
		s.cmdList(args)
	case "categories", "cat":
		for _, c := range s.cat.Categories() {
			fmt.Fprintf(s.out, "  %-16s %d blocks\n", c, len(s.cat.ByCategory(c)))
		}
	case "show", "s":
		s.cmdShow(args)
	case "props", "p":
		s.cmdProps(args)
	case "reload", "r":
		s.cmdReload(ctx)
	case "i2c":
		s.cmdI2C(args)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help')\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  list [category]        List blocks, optionally of one category
  categories             List categories
  show <block>           Show a block
  props <block>          List the properties of a block
  reload                 Reload all sources
  i2c [key=value...]     Resolve I2C base block properties
  quit                   Exit`)
}

func (s *Shell) cmdList(args []string) {
	descs := s.cat.Descriptors()
	if len(args) > 0 {
		descs = s.cat.ByCategory(args[0])
	}
	if len(descs) == 0 {
		fmt.Fprintln(s.out, "  no blocks")
		return
	}
	for _, d := range descs {
		fmt.Fprintf(s.out, "  %-24s %-8s %s\n", d.ID, d.Version, d.Category)
	}
}

// lookup resolves the single block argument of a command. The descriptor
// is returned so callers never see a block removed by a concurrent reload.
func (s *Shell) lookup(args []string) (*blockspec.Descriptor, bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: <command> <block>")
		return nil, false
	}
	d, ok := s.cat.Get(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown block: %s\n", args[0])
		return nil, false
	}
	return d, true
}

func (s *Shell) cmdShow(args []string) {
	d, ok := s.lookup(args)
	if !ok {
		return
	}
	printDescriptorText(s.out, d)
	if src, ok := s.cat.SourceOf(d.ID); ok {
		fmt.Fprintf(s.out, "  source: %s\n", src)
	}
}

func (s *Shell) cmdProps(args []string) {
	d, ok := s.lookup(args)
	if !ok {
		return
	}
	for _, n := range d.PropertyNames() {
		p, _ := d.Property(n)
		example := "-"
		if p.HasExample {
			example = p.Example
		}
		fmt.Fprintf(s.out, "  %-16s %-12s %s\n", n, example, p.Description)
	}
}

func (s *Shell) cmdReload(ctx context.Context) {
	report, err := s.cat.Reload(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Reload failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Loaded %d blocks (%d changed, %d removed, %d rejected)\n",
		len(report.Loaded), len(report.Changed), len(report.Removed), len(report.Rejected))
	for _, rej := range report.Rejected {
		fmt.Fprintf(s.out, "  REJECTED %s: %v\n", rej.Document, rej.Err)
	}
}

func (s *Shell) cmdI2C(args []string) {
	values := make(map[string]string)
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(s.out, "Expected key=value, got %q\n", arg)
			return
		}
		values[k] = v
	}
	cfg, err := i2cbase.Resolve(values)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "  %s\n", cfg)
}

// ShellOptions configures the shell command.
type ShellOptions struct {
	CatalogOptions
	Watch bool
}

// RunShell starts an interactive catalog browser on the terminal.
func RunShell(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("shell")
	opts := ShellOptions{}
	opts.register(fs)
	fs.BoolVar(&opts.Watch, "watch", false, "Reload when files in the catalog directory change")
	if err := fs.Parse(args); err != nil {
		return handleParseError(err, stderr, printShellUsage)
	}
	opts.Dir = dirFromEnv(opts.Dir)

	if opts.Watch && opts.Dir == "" {
		fmt.Fprintln(stderr, "Error: --watch needs a catalog directory")
		return exitCommandError
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "blocks> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create readline: %v\n", err)
		return exitCommandError
	}
	defer rl.Close()

	// Log output goes through readline so it does not garble the prompt.
	cat, closeLog, err := openCatalog(opts.CatalogOptions, rl.Stderr())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	sh := NewShell(cat, rl.Stdout())
	sh.cmdReload(ctx)

	if opts.Watch {
		go func() {
			err := cat.Watch(ctx, opts.Dir, catalog.WatchOptions{
				OnReload: func(r *catalog.Report, err error) {
					if err != nil {
						fmt.Fprintf(rl.Stdout(), "\nReload failed: %v\n", err)
						return
					}
					fmt.Fprintf(rl.Stdout(), "\nReloaded: %d blocks, %d rejected\n", len(r.Loaded), len(r.Rejected))
				},
			})
			if err != nil {
				fmt.Fprintf(rl.Stderr(), "Watch stopped: %v\n", err)
			}
		}()
	}

	sh.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return exitSuccess
		}
		if !sh.Exec(ctx, line) {
			return exitSuccess
		}
	}
}

func printShellUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec shell [options]

Options:
  --dir         Catalog directory (default $BLOCKSPEC_DIR)
  --no-builtin  Do not include the builtin blocks
  --strict      Reject the whole reload if any document is invalid
  --events      Append load events to a CBOR log file
  --verbose     Log load events
  --watch       Reload when catalog files change

Examples:
  blockspec shell --dir blocks --watch`)
}
