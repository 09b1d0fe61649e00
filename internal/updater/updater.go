// Package updater splices a generated results table into the marker-delimited
// region of a human-maintained document.
//
// Example:
//
//	err := UpdateResults("README.md", table,
//	    WithRows(len(records)),
//	    WithTimeout(2*time.Second),
//	    WithMonitor(func(metrics UpdateMetrics) { log.Printf("%+v", metrics) }))
//
// UpdateResults acquires a file lock next to the document, validates the
// markers, and writes the result atomically. Everything outside the markers
// is preserved byte for byte. If validation fails the document is not touched.
package updater

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harrison/lpreport/internal/filelock"
)

// Default markers delimiting the generated region.
const (
	DefaultStartMarker = "<!-- results-start -->"
	DefaultEndMarker   = "<!-- results-end -->"
)

var (
	// ErrMarkerNotFound indicates a marker is absent from the document.
	ErrMarkerNotFound = errors.New("markers not found")
	// ErrDuplicateMarker indicates a marker occurs more than once.
	ErrDuplicateMarker = errors.New("marker occurs more than once")
	// ErrMarkerOrder indicates the end marker precedes the start marker.
	ErrMarkerOrder = errors.New("end marker precedes start marker")
)

// UpdateMonitor receives metrics describing each document update attempt.
type UpdateMonitor func(UpdateMetrics)

// UpdateMetrics captures contextual data about a document update.
type UpdateMetrics struct {
	Path         string
	Rows         int
	Changed      bool // region content differed from the new table
	Duration     time.Duration
	BytesRead    int
	BytesWritten int
	Err          error
}

type options struct {
	timeout     time.Duration
	monitor     UpdateMonitor
	startMarker string
	endMarker   string
	rows        int
}

// Option configures behaviour of UpdateResults.
type Option func(*options)

// WithTimeout configures how long UpdateResults should wait when acquiring
// the document lock. A non-positive duration falls back to blocking.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithMonitor registers a callback that receives metrics after each update.
func WithMonitor(m UpdateMonitor) Option {
	return func(o *options) {
		o.monitor = m
	}
}

// WithMarkers overrides the region markers. Empty values keep the defaults.
func WithMarkers(start, end string) Option {
	return func(o *options) {
		if start != "" {
			o.startMarker = start
		}
		if end != "" {
			o.endMarker = end
		}
	}
}

// WithRows records the number of data rows in the table for metrics.
func WithRows(n int) Option {
	return func(o *options) {
		o.rows = n
	}
}

// UpdateResults replaces the region between the markers in docPath with table.
func UpdateResults(docPath string, table string, opts ...Option) error {
	config := options{
		startMarker: DefaultStartMarker,
		endMarker:   DefaultEndMarker,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}

	metrics := UpdateMetrics{
		Path: docPath,
		Rows: config.rows,
	}
	start := time.Now()
	defer func() {
		metrics.Duration = time.Since(start)
		if config.monitor != nil {
			config.monitor(metrics)
		}
	}()

	err := filelock.WithLock(docPath, config.timeout, func() error {
		info, err := os.Stat(docPath)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(docPath)
		if err != nil {
			return err
		}
		metrics.BytesRead = len(content)

		updated, err := Splice(content, table, config.startMarker, config.endMarker)
		if err != nil {
			return fmt.Errorf("%s: %w", docPath, err)
		}
		metrics.Changed = !bytes.Equal(content, updated)

		if err := filelock.AtomicWrite(docPath, updated, info.Mode().Perm()); err != nil {
			return err
		}
		metrics.BytesWritten = len(updated)
		return nil
	})
	metrics.Err = err
	return err
}

// Splice returns content with the text strictly between the start and end
// markers replaced by a newline, table, and a newline. Each marker must occur
// exactly once, start before end.
func Splice(content []byte, table string, startMarker, endMarker string) ([]byte, error) {
	startIdx, endIdx, err := Locate(content, startMarker, endMarker)
	if err != nil {
		return nil, err
	}

	before := content[:startIdx+len(startMarker)]
	after := content[endIdx:]

	out := make([]byte, 0, len(before)+len(table)+len(after)+2)
	out = append(out, before...)
	out = append(out, '\n')
	out = append(out, table...)
	out = append(out, '\n')
	out = append(out, after...)
	return out, nil
}

// Region returns the bytes strictly between the markers.
func Region(content []byte, startMarker, endMarker string) ([]byte, error) {
	startIdx, endIdx, err := Locate(content, startMarker, endMarker)
	if err != nil {
		return nil, err
	}
	return content[startIdx+len(startMarker) : endIdx], nil
}

// Locate returns the offsets of the start and end markers in content.
func Locate(content []byte, startMarker, endMarker string) (int, int, error) {
	startIdx := bytes.Index(content, []byte(startMarker))
	endIdx := bytes.Index(content, []byte(endMarker))
	if startIdx == -1 || endIdx == -1 {
		return -1, -1, fmt.Errorf("%w: %s / %s", ErrMarkerNotFound, startMarker, endMarker)
	}

	if n := bytes.Count(content, []byte(startMarker)); n > 1 {
		return -1, -1, fmt.Errorf("%w: %s appears %d times", ErrDuplicateMarker, startMarker, n)
	}
	if n := bytes.Count(content, []byte(endMarker)); n > 1 {
		return -1, -1, fmt.Errorf("%w: %s appears %d times", ErrDuplicateMarker, endMarker, n)
	}

	if endIdx < startIdx+len(startMarker) {
		return -1, -1, fmt.Errorf("%w: %s before %s", ErrMarkerOrder, endMarker, startMarker)
	}

	return startIdx, endIdx, nil
}
