// Package export writes the aggregates document to disk.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"goatstats/internal/usage"
)

// Options holds configuration for export operations.
type Options struct {
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// Exporter writes aggregate documents as JSON.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes the aggregates document to the configured file path.
func (e *Exporter) Export(agg *usage.Aggregates) (err error) {
	var output []byte
	if e.opts.PrettyJSON {
		output, err = json.MarshalIndent(agg, "", "  ")
	} else {
		output, err = json.Marshal(agg)
	}
	if err != nil {
		return fmt.Errorf("marshal aggregates: %w", err)
	}

	file, err := e.createFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = file.Write(output); err != nil {
		return fmt.Errorf("write aggregates file: %w", err)
	}
	return nil
}

// createFile creates the output file, honoring the overwrite setting.
func (e *Exporter) createFile() (*os.File, error) {
	dir := filepath.Dir(e.opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if _, err := os.Stat(e.opts.FilePath); err == nil && !e.opts.Overwrite {
		return nil, fmt.Errorf("file already exists: %s (use overwrite option to replace)", e.opts.FilePath)
	}

	file, err := os.Create(e.opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return file, nil
}

// ExportToWriter writes the aggregates document to an io.Writer. Useful
// for writing to stdout.
func ExportToWriter(w io.Writer, agg *usage.Aggregates, prettyJSON bool) error {
	encoder := json.NewEncoder(w)
	if prettyJSON {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(agg)
}

// Load reads an aggregates document back from disk.
func Load(path string) (*usage.Aggregates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aggregates file: %w", err)
	}

	var agg usage.Aggregates
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("parse aggregates file: %w", err)
	}
	return &agg, nil
}
