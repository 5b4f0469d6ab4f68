package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Export finalizes the session and writes the report to path as indented
// JSON. The write is atomic from the caller's perspective: the report goes
// to a temporary file in the target directory first and is renamed into
// place, so no partial file is ever observable at path.
//
// Export does not reset the collector; it can be called repeatedly.
func (c *Collector) Export(path string) error {
	return WriteReport(c.Finalize(), path)
}

// WriteReport serializes an already-finalized report to path atomically.
func WriteReport(r Report, path string) error {
	// JSON cannot carry non-finite numbers; an undefined minimum (no valid
	// timestamp deltas) exports as 0.
	if math.IsInf(r.MinFPS, 0) || math.IsNaN(r.MinFPS) {
		r.MinFPS = 0
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("metrics: serializing report: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("metrics: creating temporary report file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: closing report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: publishing report: %w", err)
	}
	return nil
}
