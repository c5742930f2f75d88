package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// SummaryIdleCPUThreshold is the CPU percentage used when counting idle instances in a
// snapshot summary. It matches the default analyzer threshold.
const SummaryIdleCPUThreshold = 5.0

type InstanceState string

const (
	InstanceStateRunning InstanceState = "running"
	InstanceStateStopped InstanceState = "stopped"
	InstanceStateOther   InstanceState = "other"
)

// ParseInstanceState maps a provider state name onto InstanceState.
func ParseInstanceState(s string) InstanceState {
	switch InstanceState(s) {
	case InstanceStateRunning, InstanceStateStopped:
		return InstanceState(s)
	default:
		return InstanceStateOther
	}
}

type VolumeState string

const (
	VolumeStateAvailable VolumeState = "available"
	VolumeStateInUse     VolumeState = "in-use"
	VolumeStateOther     VolumeState = "other"
)

// ParseVolumeState maps a provider volume state onto VolumeState.
func ParseVolumeState(s string) VolumeState {
	switch VolumeState(s) {
	case VolumeStateAvailable, VolumeStateInUse:
		return VolumeState(s)
	default:
		return VolumeStateOther
	}
}

// ResourceSnapshot is one point-in-time capture of scanned resources, keyed by region.
// It is immutable once the collector hands it over.
type ResourceSnapshot struct {
	CapturedAt time.Time
	Regions    map[string]RegionInventory
}

// RegionInventory holds the resources found in a single region, in collection order.
type RegionInventory struct {
	Instances []ComputeInstance
	Volumes   []BlockVolume
	Databases []ManagedDbInstance
}

type ComputeInstance struct {
	ID            string
	InstanceClass string
	State         InstanceState
	LaunchedAt    *time.Time
	CPUAverage7d  float64
	Tags          map[string]string
}

type BlockVolume struct {
	ID          string
	SizeGB      int
	State       VolumeState
	Attached    bool
	VolumeClass string
	CreatedAt   time.Time
}

// ManagedDbInstance is carried through the pipeline untouched; no analyzer scores it yet.
type ManagedDbInstance struct {
	ID                 string
	DBClass            string
	Engine             string
	Status             string
	AllocatedStorageGB int
	MultiAZ            bool
}

type SnapshotSummary struct {
	TotalInstances    int
	IdleInstances     int
	TotalVolumes      int
	UnattachedVolumes int
	TotalDatabases    int
}

// RegionNames returns the snapshot regions in ascending order. Every stage that walks the
// snapshot uses this order, so repeated runs over the same snapshot produce identical output.
func (s *ResourceSnapshot) RegionNames() []string {
	names := make([]string, 0, len(s.Regions))
	for name := range s.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary derives aggregate counts from Regions. It is recomputed on every call.
func (s *ResourceSnapshot) Summary() SnapshotSummary {
	var summary SnapshotSummary
	for _, inv := range s.Regions {
		summary.TotalInstances += len(inv.Instances)
		for _, inst := range inv.Instances {
			if inst.State == InstanceStateRunning && inst.CPUAverage7d < SummaryIdleCPUThreshold {
				summary.IdleInstances++
			}
		}

		summary.TotalVolumes += len(inv.Volumes)
		for _, vol := range inv.Volumes {
			if !vol.Attached {
				summary.UnattachedVolumes++
			}
		}

		summary.TotalDatabases += len(inv.Databases)
	}
	return summary
}

var (
	ErrMissingID    = errors.New("missing resource id")
	ErrMissingClass = errors.New("missing resource class")
)

// Validate reports whether the record carries every field the analyzers depend on.
func (i ComputeInstance) Validate() error {
	if i.ID == "" {
		return ErrMissingID
	}
	if i.InstanceClass == "" {
		return fmt.Errorf("instance %s: %w", i.ID, ErrMissingClass)
	}
	if math.IsNaN(i.CPUAverage7d) || i.CPUAverage7d < 0 || i.CPUAverage7d > 100 {
		return fmt.Errorf("instance %s: cpu average %v out of range [0, 100]", i.ID, i.CPUAverage7d)
	}
	return nil
}

func (v BlockVolume) Validate() error {
	if v.ID == "" {
		return ErrMissingID
	}
	if v.SizeGB <= 0 {
		return fmt.Errorf("volume %s: size %d GB is not positive", v.ID, v.SizeGB)
	}
	return nil
}

// Clone returns a copy that shares no mutable state with i.
func (i ComputeInstance) Clone() ComputeInstance {
	out := i
	if i.LaunchedAt != nil {
		t := *i.LaunchedAt
		out.LaunchedAt = &t
	}
	if i.Tags != nil {
		out.Tags = make(map[string]string, len(i.Tags))
		for k, v := range i.Tags {
			out.Tags[k] = v
		}
	}
	return out
}
