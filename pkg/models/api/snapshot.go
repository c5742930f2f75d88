package api

import "time"

// Snapshot is the stored and served form of a resource scan.
type Snapshot struct {
	ScanTime time.Time                  `json:"scan_time"`
	Regions  map[string]RegionInventory `json:"regions"`
	Summary  SnapshotSummary            `json:"summary"`
}

type RegionInventory struct {
	EC2Instances []EC2Instance `json:"ec2_instances"`
	EBSVolumes   []EBSVolume   `json:"ebs_volumes"`
	RDSInstances []RDSInstance `json:"rds_instances"`
}

type EC2Instance struct {
	InstanceID string            `json:"instance_id"`
	Type       string            `json:"type"`
	State      string            `json:"state"`
	LaunchTime *time.Time        `json:"launch_time,omitempty"`
	CPUAvg7d   float64           `json:"cpu_avg_7d"`
	Tags       map[string]string `json:"tags"`
}

type EBSVolume struct {
	VolumeID   string    `json:"volume_id"`
	SizeGB     int       `json:"size_gb"`
	State      string    `json:"state"`
	Attached   bool      `json:"attached"`
	CreateTime time.Time `json:"create_time"`
	VolumeType string    `json:"volume_type"`
}

type RDSInstance struct {
	DBIdentifier     string `json:"db_identifier"`
	DBClass          string `json:"db_class"`
	Engine           string `json:"engine"`
	Status           string `json:"status"`
	AllocatedStorage int    `json:"allocated_storage"`
	MultiAZ          bool   `json:"multi_az"`
}

type SnapshotSummary struct {
	TotalEC2Instances    int `json:"total_ec2_instances"`
	IdleEC2Instances     int `json:"idle_ec2_instances"`
	TotalEBSVolumes      int `json:"total_ebs_volumes"`
	UnattachedEBSVolumes int `json:"unattached_ebs_volumes"`
	TotalRDSInstances    int `json:"total_rds_instances"`
}
