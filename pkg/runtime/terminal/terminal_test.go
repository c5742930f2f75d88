package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	snapshot *domain.ResourceSnapshot
}

func (s staticSource) Collect(context.Context) (*domain.ResourceSnapshot, error) {
	return s.snapshot, nil
}

func testSnapshot() *domain.ResourceSnapshot {
	return &domain.ResourceSnapshot{
		CapturedAt: time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC),
		Regions: map[string]domain.RegionInventory{
			"us-east-1": {
				Instances: []domain.ComputeInstance{
					{ID: "i-idle", InstanceClass: "t3.medium", State: domain.InstanceStateRunning, CPUAverage7d: 0.8, Tags: map[string]string{}},
				},
				Volumes: []domain.BlockVolume{
					{ID: "vol-001", SizeGB: 20, State: domain.VolumeStateAvailable, VolumeClass: "gp2"},
				},
				Databases: []domain.ManagedDbInstance{},
			},
		},
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COSTATLAS_STORAGE_DB_PATH", ":memory:")

	var out bytes.Buffer
	cli := NewCLI(Options{
		Output: &out,
		Logger: zerolog.New(zerolog.NewTestWriter(t)),
		Source: staticSource{snapshot: testSnapshot()},
	})
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestAnalyze_TextReport(t *testing.T) {
	out, err := runCLI(t, "analyze")

	require.NoError(t, err)
	assert.Contains(t, out, "Recommendations: 2")
	assert.Contains(t, out, "| vol-001 ")
	assert.Contains(t, out, "| i-idle ")
	assert.NotContains(t, out, "Actions Taken")
}

func TestAnalyze_ExecuteDryRunAsJSON(t *testing.T) {
	out, err := runCLI(t, "analyze", "--execute", "--output", "json")

	require.NoError(t, err)
	var report api.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalRecommendations)
	require.Len(t, report.ActionsTaken, 2)
	for _, action := range report.ActionsTaken {
		assert.True(t, action.Succeeded)
		assert.Contains(t, action.Result, "[DRY RUN]")
	}
}

func TestAnalyze_FromSnapshotFile(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Regions["eu-west-1"] = domain.RegionInventory{
		Volumes: []domain.BlockVolume{{ID: "vol-eu", SizeGB: 10, State: domain.VolumeStateAvailable, VolumeClass: "gp3"}},
	}
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, file.WriteJSON(path, adapters.MapSnapshotDomainToApi(snapshot)))

	out, err := runCLI(t, "analyze", "--snapshot", path, "-o", "json")

	require.NoError(t, err)
	var report api.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.TotalRecommendations)
	assert.Equal(t, "vol-eu", report.Recommendations[0].ResourceID)
}

func TestAnalyze_InvalidFlags(t *testing.T) {
	_, err := runCLI(t, "analyze", "--live")
	assert.ErrorContains(t, err, "--live requires --execute")

	_, err = runCLI(t, "analyze", "--output", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = runCLI(t, "analyze", "--snapshot", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to obtain snapshot")
}

func TestScan_PrintsAndArchivesSnapshot(t *testing.T) {
	archiveDir := t.TempDir()

	out, err := runCLI(t, "scan", "--archive-dir", archiveDir)

	require.NoError(t, err)
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "1 volumes (1 unattached)")
	entries, err := os.ReadDir(filepath.Join(archiveDir, "scans"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scan_20240301_020000.json", entries[0].Name())
}

func TestExecute_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"type": "unattached-volume",
		"severity": "medium",
		"region": "us-east-1",
		"resource_id": "vol-001",
		"resource_type": "EBS Volume",
		"issue": "Volume not attached to any instance",
		"recommendation": "Create snapshot and delete volume",
		"action": "snapshot-and-delete",
		"monthly_savings": 2.0
	}`), 0o600))

	out, err := runCLI(t, "execute", "--recommendation", path)

	require.NoError(t, err)
	assert.Equal(t, "vol-001 (snapshot-and-delete): [DRY RUN] Would snapshot and delete volume vol-001 in us-east-1\n", out)
}

func TestExecute_Rejections(t *testing.T) {
	_, err := runCLI(t, "execute")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"action":"stop"}`), 0o600))
	_, err = runCLI(t, "execute", "--recommendation", path)
	assert.ErrorContains(t, err, "resource_id")

	require.NoError(t, os.WriteFile(path, []byte(`{"resource_id":"i-1","action":"reboot","region":"us-east-1"}`), 0o600))
	out, err := runCLI(t, "execute", "--recommendation", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No remediation performed: unknown action")
}

func TestProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(`[default]
region = us-east-1

[profile prod]
role_arn = arn:aws:iam::123456789012:role/ops
source_profile = default
region = eu-west-1
`), 0o600))
	t.Setenv("COSTATLAS_AWS_PROFILE", "prod")

	out, err := runCLI(t, "profiles", "--aws-config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Profiles in "+path)
	assert.Regexp(t, `default\s+-\s+us-east-1`, out)
	assert.Regexp(t, `prod\s+role\s+eu-west-1`, out)
	assert.Contains(t, out, "Configured profile: prod")
}
