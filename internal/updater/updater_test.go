package updater

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/harrison/lpreport/internal/filelock"
)

const table = "| Instance | Compact LP | Time (s) | ColGen LP | Time (s) | Gap (%) |\n" +
	"| --- | ---: | ---: | ---: | ---: | ---: |\n" +
	"| A1 | 100.0 | 1.2 | 120.0 | 3.4 | 16.67 |"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestUpdateResultsReplacesRegion(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")

	writeFile(t, docPath, "# Cutting stock\n\n## Results\n\n<!-- results-start -->\nOLD\n<!-- results-end -->\n\nFooter\n")

	if err := UpdateResults(docPath, table); err != nil {
		t.Fatalf("UpdateResults failed: %v", err)
	}

	want := "# Cutting stock\n\n## Results\n\n<!-- results-start -->\n" + table + "\n<!-- results-end -->\n\nFooter\n"
	if diff := cmp.Diff(want, readFile(t, docPath)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateResultsIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	writeFile(t, docPath, "intro\n<!-- results-start -->\nOLD\n<!-- results-end -->\n")

	if err := UpdateResults(docPath, table); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	once := readFile(t, docPath)

	if err := UpdateResults(docPath, table); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if twice := readFile(t, docPath); twice != once {
		t.Fatalf("second update changed the document:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}

func TestSplicePreservesOutsideBytes(t *testing.T) {
	prefixes := []string{"", "# Title\n", "line\r\nwith crlf\r\n", "tabs\t\tand  spaces   ", "ünïcödé ✓\n\n\n"}
	suffixes := []string{"", "\n", "\ntrailing text without newline", "\r\n\r\n## More\n- [ ] item\n"}

	for _, prefix := range prefixes {
		for _, suffix := range suffixes {
			doc := prefix + DefaultStartMarker + "anything\nat all" + DefaultEndMarker + suffix

			got, err := Splice([]byte(doc), table, DefaultStartMarker, DefaultEndMarker)
			if err != nil {
				t.Fatalf("Splice failed: %v", err)
			}

			want := prefix + DefaultStartMarker + "\n" + table + "\n" + DefaultEndMarker + suffix
			if string(got) != want {
				t.Errorf("prefix %q suffix %q: got %q, want %q", prefix, suffix, got, want)
			}
		}
	}
}

func TestSpliceEmptyRegion(t *testing.T) {
	got, err := Splice([]byte(DefaultStartMarker+DefaultEndMarker), "T", DefaultStartMarker, DefaultEndMarker)
	if err != nil {
		t.Fatalf("Splice failed: %v", err)
	}
	if want := DefaultStartMarker + "\nT\n" + DefaultEndMarker; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSpliceMarkerErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "no markers", doc: "just prose\n", wantErr: ErrMarkerNotFound},
		{name: "missing end", doc: "<!-- results-start -->\nOLD\n", wantErr: ErrMarkerNotFound},
		{name: "missing start", doc: "OLD\n<!-- results-end -->\n", wantErr: ErrMarkerNotFound},
		{name: "duplicate start", doc: "<!-- results-start -->\n<!-- results-start -->\n<!-- results-end -->\n", wantErr: ErrDuplicateMarker},
		{name: "duplicate end", doc: "<!-- results-start -->\n<!-- results-end -->\n<!-- results-end -->\n", wantErr: ErrDuplicateMarker},
		{name: "reversed", doc: "<!-- results-end -->\nOLD\n<!-- results-start -->\n", wantErr: ErrMarkerOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Splice([]byte(tt.doc), table, DefaultStartMarker, DefaultEndMarker)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMarkerNotFoundNamesBothMarkers(t *testing.T) {
	_, err := Splice([]byte("nothing"), table, DefaultStartMarker, DefaultEndMarker)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, marker := range []string{DefaultStartMarker, DefaultEndMarker} {
		if !strings.Contains(err.Error(), marker) {
			t.Errorf("error %q should name %s", err, marker)
		}
	}
}

func TestUpdateResultsLeavesDocumentOnMissingEndMarker(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	original := "# Title\n<!-- results-start -->\nOLD\n"
	writeFile(t, docPath, original)

	err := UpdateResults(docPath, table)
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("expected ErrMarkerNotFound, got %v", err)
	}
	if got := readFile(t, docPath); got != original {
		t.Fatalf("document changed on failure:\n%s", got)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestUpdateResultsMissingDocument(t *testing.T) {
	docPath := filepath.Join(t.TempDir(), "README.md")

	err := UpdateResults(docPath, table)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, statErr := os.Stat(docPath); !os.IsNotExist(statErr) {
		t.Fatal("UpdateResults must not create the document")
	}
}

func TestUpdateResultsCustomMarkers(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "RESULTS.md")
	writeFile(t, docPath, "[[begin]]old[[end]]")

	if err := UpdateResults(docPath, "T", WithMarkers("[[begin]]", "[[end]]")); err != nil {
		t.Fatalf("UpdateResults failed: %v", err)
	}
	if got := readFile(t, docPath); got != "[[begin]]\nT\n[[end]]" {
		t.Fatalf("unexpected document %q", got)
	}
}

func TestUpdateResultsPreservesFileMode(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	writeFile(t, docPath, "<!-- results-start --><!-- results-end -->")
	if err := os.Chmod(docPath, 0600); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	if err := UpdateResults(docPath, table); err != nil {
		t.Fatalf("UpdateResults failed: %v", err)
	}

	info, err := os.Stat(docPath)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestUpdateResultsKeepsSymlinkedDocument(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "docs", "README.md")
	linkPath := filepath.Join(tmpDir, "README.md")
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	writeFile(t, targetPath, "<!-- results-start --><!-- results-end -->")
	if err := os.Symlink(targetPath, linkPath); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := UpdateResults(linkPath, table); err != nil {
		t.Fatalf("UpdateResults failed: %v", err)
	}

	info, err := os.Lstat(linkPath)
	if err != nil {
		t.Fatalf("lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("document symlink was replaced by a regular file")
	}
	want := "<!-- results-start -->\n" + table + "\n<!-- results-end -->"
	if got := readFile(t, targetPath); got != want {
		t.Fatalf("target not updated:\n%s", got)
	}
}

func TestUpdateResultsMonitorMetrics(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	original := "<!-- results-start -->\nOLD\n<!-- results-end -->\n"
	writeFile(t, docPath, original)

	var got []UpdateMetrics
	monitor := func(m UpdateMetrics) { got = append(got, m) }

	if err := UpdateResults(docPath, table, WithRows(1), WithMonitor(monitor)); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := UpdateResults(docPath, table, WithRows(1), WithMonitor(monitor)); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(got))
	}
	first, second := got[0], got[1]
	if first.Path != docPath || first.Rows != 1 {
		t.Errorf("unexpected metrics identity: %+v", first)
	}
	if !first.Changed || second.Changed {
		t.Errorf("expected first update to change and second not to: %v, %v", first.Changed, second.Changed)
	}
	if first.BytesRead != len(original) {
		t.Errorf("expected %d bytes read, got %d", len(original), first.BytesRead)
	}
	if first.BytesWritten != len(readFile(t, docPath)) {
		t.Errorf("unexpected bytes written %d", first.BytesWritten)
	}
	if first.Err != nil || second.Err != nil {
		t.Errorf("unexpected errors in metrics: %v, %v", first.Err, second.Err)
	}
}

func TestUpdateResultsMonitorSeesError(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	writeFile(t, docPath, "no markers")

	var metrics UpdateMetrics
	err := UpdateResults(docPath, table, WithMonitor(func(m UpdateMetrics) { metrics = m }))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(metrics.Err, ErrMarkerNotFound) {
		t.Fatalf("monitor should receive the error, got %v", metrics.Err)
	}
	if metrics.BytesWritten != 0 {
		t.Fatalf("nothing should be written, got %d bytes", metrics.BytesWritten)
	}
}

func TestUpdateResultsLockTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	docPath := filepath.Join(tmpDir, "README.md")
	original := "<!-- results-start -->\nOLD\n<!-- results-end -->\n"
	writeFile(t, docPath, original)

	holder := filelock.NewFileLock(docPath + ".lock")
	if err := holder.Lock(); err != nil {
		t.Fatalf("failed to hold lock: %v", err)
	}
	defer holder.Unlock()

	err := UpdateResults(docPath, table, WithTimeout(100*time.Millisecond))
	if !errors.Is(err, filelock.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if got := readFile(t, docPath); got != original {
		t.Fatal("document changed while lock was held elsewhere")
	}
}

func TestRegion(t *testing.T) {
	region, err := Region([]byte("a<!-- results-start -->\nX\n<!-- results-end -->b"), DefaultStartMarker, DefaultEndMarker)
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if string(region) != "\nX\n" {
		t.Fatalf("unexpected region %q", region)
	}
}
