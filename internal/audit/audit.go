// Package audit appends every raw quote record, verbatim, to an append-only
// text log before aggregation. The log is a replayable trace independent of
// aggregation outcome.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MJRob1/fx-sim-agg/internal/infra/metrics"
)

type Writer struct {
	f *os.File
	w *bufio.Writer
}

// NewWriter creates (or truncates) the audit log file, creating parent
// directories as needed. Failure here is fatal to startup; the caller exits
// non-zero.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit log dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one raw record line. Steady-state failures are recoverable:
// the caller logs and counts them but keeps aggregating.
func (a *Writer) Write(record string) error {
	if _, err := a.w.WriteString(record); err != nil {
		metrics.AuditWriteErrorsTotal.Inc()
		return err
	}
	if err := a.w.WriteByte('\n'); err != nil {
		metrics.AuditWriteErrorsTotal.Inc()
		return err
	}
	return nil
}

// Close flushes buffered records and closes the file.
func (a *Writer) Close() error {
	if err := a.w.Flush(); err != nil {
		_ = a.f.Close()
		return err
	}
	return a.f.Close()
}
