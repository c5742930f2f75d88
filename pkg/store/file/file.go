package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

const timestampLayout = "20060102_150405"

// SnapshotSource replays a snapshot previously written as JSON.
type SnapshotSource struct {
	path string
}

func NewSnapshotSource(path string) (*SnapshotSource, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is empty")
	}
	return &SnapshotSource{path: path}, nil
}

func (s *SnapshotSource) Collect(_ context.Context) (*domain.ResourceSnapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var wire api.Snapshot
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return adapters.MapSnapshotApiToDomain(wire), nil
}

// Archive writes snapshots to <root>/scans/scan_<ts>.json and reports to
// <root>/recommendations/report_<ts>.json.
type Archive struct {
	root string
}

func NewArchive(root string) (*Archive, error) {
	for _, dir := range []string{"scans", "recommendations"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}
	return &Archive{root: root}, nil
}

func (a *Archive) SaveSnapshot(_ context.Context, snapshot *domain.ResourceSnapshot) error {
	path := filepath.Join(a.root, "scans", fmt.Sprintf("scan_%s.json", stamp(snapshot.CapturedAt)))
	return writeJSON(path, adapters.MapSnapshotDomainToApi(snapshot))
}

func (a *Archive) SaveReport(_ context.Context, report *domain.AnalysisReport) error {
	path := filepath.Join(a.root, "recommendations", fmt.Sprintf("report_%s.json", stamp(report.Timestamp)))
	return writeJSON(path, adapters.MapReportDomainToApi(report))
}

func stamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// WriteJSON encodes v with indentation; used for CLI exports.
func WriteJSON(path string, v any) error {
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
