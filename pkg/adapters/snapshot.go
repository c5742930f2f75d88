package adapters

import (
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

func MapSnapshotDomainToApi(s *domain.ResourceSnapshot) api.Snapshot {
	res := api.Snapshot{
		ScanTime: s.CapturedAt,
		Regions:  make(map[string]api.RegionInventory, len(s.Regions)),
		Summary:  MapSummaryDomainToApi(s.Summary()),
	}
	for region, inv := range s.Regions {
		out := api.RegionInventory{
			EC2Instances: make([]api.EC2Instance, 0, len(inv.Instances)),
			EBSVolumes:   make([]api.EBSVolume, 0, len(inv.Volumes)),
			RDSInstances: make([]api.RDSInstance, 0, len(inv.Databases)),
		}
		for _, i := range inv.Instances {
			out.EC2Instances = append(out.EC2Instances, MapInstanceDomainToApi(i))
		}
		for _, v := range inv.Volumes {
			out.EBSVolumes = append(out.EBSVolumes, MapVolumeDomainToApi(v))
		}
		for _, db := range inv.Databases {
			out.RDSInstances = append(out.RDSInstances, api.RDSInstance{
				DBIdentifier:     db.ID,
				DBClass:          db.DBClass,
				Engine:           db.Engine,
				Status:           db.Status,
				AllocatedStorage: db.AllocatedStorageGB,
				MultiAZ:          db.MultiAZ,
			})
		}
		res.Regions[region] = out
	}
	return res
}

// MapSnapshotApiToDomain ignores the stored summary; it is always derived from the inventory.
func MapSnapshotApiToDomain(s api.Snapshot) *domain.ResourceSnapshot {
	res := &domain.ResourceSnapshot{
		CapturedAt: s.ScanTime,
		Regions:    make(map[string]domain.RegionInventory, len(s.Regions)),
	}
	for region, inv := range s.Regions {
		out := domain.RegionInventory{
			Instances: make([]domain.ComputeInstance, 0, len(inv.EC2Instances)),
			Volumes:   make([]domain.BlockVolume, 0, len(inv.EBSVolumes)),
			Databases: make([]domain.ManagedDbInstance, 0, len(inv.RDSInstances)),
		}
		for _, i := range inv.EC2Instances {
			out.Instances = append(out.Instances, MapInstanceApiToDomain(i))
		}
		for _, v := range inv.EBSVolumes {
			out.Volumes = append(out.Volumes, MapVolumeApiToDomain(v))
		}
		for _, db := range inv.RDSInstances {
			out.Databases = append(out.Databases, domain.ManagedDbInstance{
				ID:                 db.DBIdentifier,
				DBClass:            db.DBClass,
				Engine:             db.Engine,
				Status:             db.Status,
				AllocatedStorageGB: db.AllocatedStorage,
				MultiAZ:            db.MultiAZ,
			})
		}
		res.Regions[region] = out
	}
	return res
}

func MapSummaryDomainToApi(s domain.SnapshotSummary) api.SnapshotSummary {
	return api.SnapshotSummary{
		TotalEC2Instances:    s.TotalInstances,
		IdleEC2Instances:     s.IdleInstances,
		TotalEBSVolumes:      s.TotalVolumes,
		UnattachedEBSVolumes: s.UnattachedVolumes,
		TotalRDSInstances:    s.TotalDatabases,
	}
}

func MapSummaryApiToDomain(s api.SnapshotSummary) domain.SnapshotSummary {
	return domain.SnapshotSummary{
		TotalInstances:    s.TotalEC2Instances,
		IdleInstances:     s.IdleEC2Instances,
		TotalVolumes:      s.TotalEBSVolumes,
		UnattachedVolumes: s.UnattachedEBSVolumes,
		TotalDatabases:    s.TotalRDSInstances,
	}
}

func MapInstanceDomainToApi(i domain.ComputeInstance) api.EC2Instance {
	c := i.Clone()
	tags := c.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return api.EC2Instance{
		InstanceID: c.ID,
		Type:       c.InstanceClass,
		State:      string(c.State),
		LaunchTime: c.LaunchedAt,
		CPUAvg7d:   c.CPUAverage7d,
		Tags:       tags,
	}
}

func MapInstanceApiToDomain(i api.EC2Instance) domain.ComputeInstance {
	return domain.ComputeInstance{
		ID:            i.InstanceID,
		InstanceClass: i.Type,
		State:         domain.ParseInstanceState(i.State),
		LaunchedAt:    i.LaunchTime,
		CPUAverage7d:  i.CPUAvg7d,
		Tags:          i.Tags,
	}.Clone()
}

func MapVolumeDomainToApi(v domain.BlockVolume) api.EBSVolume {
	return api.EBSVolume{
		VolumeID:   v.ID,
		SizeGB:     v.SizeGB,
		State:      string(v.State),
		Attached:   v.Attached,
		CreateTime: v.CreatedAt,
		VolumeType: v.VolumeClass,
	}
}

func MapVolumeApiToDomain(v api.EBSVolume) domain.BlockVolume {
	return domain.BlockVolume{
		ID:          v.VolumeID,
		SizeGB:      v.SizeGB,
		State:       domain.ParseVolumeState(v.State),
		Attached:    v.Attached,
		VolumeClass: v.VolumeType,
		CreatedAt:   v.CreateTime,
	}
}
