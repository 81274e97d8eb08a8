package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/i2cbase"
)

// I2COutput is the JSON form of a resolved I2C configuration.
type I2COutput struct {
	Platform   string `json:"platform"`
	Address    string `json:"address"`
	Bus        string `json:"bus"`
	DevicePath string `json:"device_path,omitempty"`
}

// RunI2C resolves I2C base block property values given as key=value pairs
// and prints the effective configuration.
func RunI2C(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("i2c")
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		return handleParseError(err, stderr, printI2CUsage)
	}

	values := make(map[string]string)
	for _, arg := range fs.Args() {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(stderr, "Error: expected key=value, got %q\n", arg)
			return exitCommandError
		}
		values[k] = v
	}

	cfg, err := i2cbase.Resolve(values)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var pe *i2cbase.PropertyError
		if errors.As(err, &pe) {
			return exitValidation
		}
		return exitCommandError
	}

	out := I2COutput{
		Platform:   cfg.Platform.String(),
		Address:    cfg.AddressHex(),
		Bus:        cfg.Bus,
		DevicePath: cfg.DevicePath(),
	}
	if *asJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(stdout, string(data))
		return exitSuccess
	}

	fmt.Fprintf(stdout, "platform:    %s\n", out.Platform)
	fmt.Fprintf(stdout, "address:     %s\n", out.Address)
	fmt.Fprintf(stdout, "bus:         %s\n", out.Bus)
	if out.DevicePath != "" {
		fmt.Fprintf(stdout, "device path: %s\n", out.DevicePath)
	} else {
		fmt.Fprintln(stdout, "device path: none (USB bridge)")
	}
	return exitSuccess
}

func printI2CUsage(w io.Writer) {
	names := make([]string, 0, len(i2cbase.Platforms()))
	for _, p := range i2cbase.Platforms() {
		names = append(names, p.String())
	}
	fmt.Fprintf(w, `
Usage: blockspec i2c [--json] [key=value...]

Keys:
  platform     One of %s (default %s)
  I2C_address  7-bit address, e.g. 0x40 (default %s)
  bus          Bus number (default %s)

Examples:
  blockspec i2c platform=raspberry_pi I2C_address=0x40
`, strings.Join(names, ", "), i2cbase.DefaultPlatform, i2cbase.DefaultAddress, i2cbase.DefaultBus)
}
