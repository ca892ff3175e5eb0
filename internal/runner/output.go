package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pkg.jsn.cam/forge/internal/config"
)

// Encode writes items to w in format.
func Encode(w io.Writer, format string, items []any) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

// write encodes items to output. "-" is the runner's stdout.
func (r *Runner) write(output, format string, items []any) error {
	if output == config.DefaultOutput {
		r.stdoutMu.Lock()
		defer r.stdoutMu.Unlock()
		return Encode(r.stdout(), format, items)
	}

	if err := ensureDir(output); err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output %s: %w", output, err)
	}
	if err := Encode(f, format, items); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output %s: %w", output, err)
	}
	return f.Close()
}
