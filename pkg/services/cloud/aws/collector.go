package aws

import (
	"context"
	"fmt"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	cpuWindow = 7 * 24 * time.Hour
	cpuPeriod = int32(24 * 60 * 60)

	defaultRegionTimeout = 2 * time.Minute
	defaultParallelism   = 4
)

var DefaultRegions = []string{
	"us-east-1",
	"us-west-1",
	"us-west-2",
	"eu-west-1",
	"eu-central-1",
	"ap-southeast-1",
}

type CollectorSettings struct {
	Regions []string
	// RegionTimeout bounds the time spent scanning a single region (default: 2m)
	RegionTimeout time.Duration
	// Parallelism is the number of regions scanned at once (default: 4)
	Parallelism int
}

func DefaultCollectorSettings() CollectorSettings {
	return CollectorSettings{
		Regions:       append([]string{}, DefaultRegions...),
		RegionTimeout: defaultRegionTimeout,
		Parallelism:   defaultParallelism,
	}
}

// Collector builds resource snapshots from the live account.
type Collector struct {
	clients  ClientFactory
	settings CollectorSettings
	now      func() time.Time
}

func NewCollector(clients ClientFactory, settings CollectorSettings) (*Collector, error) {
	if clients == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	if len(settings.Regions) == 0 {
		return nil, fmt.Errorf("at least one region must be provided")
	}
	if settings.RegionTimeout <= 0 {
		settings.RegionTimeout = defaultRegionTimeout
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = defaultParallelism
	}
	return &Collector{clients: clients, settings: settings, now: time.Now}, nil
}

// Collect scans every configured region. A region or service that cannot be described
// contributes empty lists; the scan itself only fails when ctx is done.
func (c *Collector) Collect(ctx context.Context) (*domain.ResourceSnapshot, error) {
	snapshot := &domain.ResourceSnapshot{
		CapturedAt: c.now().UTC(),
		Regions:    make(map[string]domain.RegionInventory, len(c.settings.Regions)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.settings.Parallelism)
	for _, region := range c.settings.Regions {
		region := region
		g.Go(func() error {
			inv := c.scanRegion(ctx, region)
			mu.Lock()
			snapshot.Regions[region] = inv
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resource scan interrupted: %w", err)
	}

	summary := snapshot.Summary()
	zerolog.Ctx(ctx).Info().
		Int("regions", len(snapshot.Regions)).
		Int("instances", summary.TotalInstances).
		Int("volumes", summary.TotalVolumes).
		Int("databases", summary.TotalDatabases).
		Msg("resource scan finished")
	return snapshot, nil
}

func (c *Collector) scanRegion(ctx context.Context, region string) domain.RegionInventory {
	ctx, cancel := context.WithTimeout(ctx, c.settings.RegionTimeout)
	defer cancel()
	logger := zerolog.Ctx(ctx).With().Str("region", region).Logger()

	inv := domain.RegionInventory{
		Instances: []domain.ComputeInstance{},
		Volumes:   []domain.BlockVolume{},
		Databases: []domain.ManagedDbInstance{},
	}

	ec2Client := c.clients.EC2(region)
	instances, err := c.describeInstances(ctx, ec2Client, c.clients.CloudWatch(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to describe instances")
	} else {
		inv.Instances = instances
	}

	volumes, err := describeVolumes(ctx, ec2Client)
	if err != nil {
		logger.Error().Err(err).Msg("failed to describe volumes")
	} else {
		inv.Volumes = volumes
	}

	databases, err := describeDatabases(ctx, c.clients.RDS(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to describe db instances")
	} else {
		inv.Databases = databases
	}

	logger.Debug().
		Int("instances", len(inv.Instances)).
		Int("volumes", len(inv.Volumes)).
		Int("databases", len(inv.Databases)).
		Msg("region scanned")
	return inv
}

func (c *Collector) describeInstances(
	ctx context.Context,
	client EC2API,
	metrics CloudWatchAPI,
) ([]domain.ComputeInstance, error) {
	instances := []domain.ComputeInstance{}
	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe EC2 instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				ci := mapInstance(instance)
				if ci.State == domain.InstanceStateRunning {
					ci.CPUAverage7d = c.averageCPU(ctx, metrics, ci.ID)
				}
				instances = append(instances, ci)
			}
		}
	}
	return instances, nil
}

// averageCPU returns the mean of the daily CPUUtilization averages over the last week, rounded
// to two decimals. Missing datapoints and metric errors yield 0.
func (c *Collector) averageCPU(ctx context.Context, client CloudWatchAPI, instanceID string) float64 {
	end := c.now().UTC()
	start := end.Add(-cpuWindow)

	out, err := client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String("AWS/EC2"),
		MetricName: awssdk.String("CPUUtilization"),
		Dimensions: []cwtypes.Dimension{
			{Name: awssdk.String("InstanceId"), Value: awssdk.String(instanceID)},
		},
		StartTime:  awssdk.Time(start),
		EndTime:    awssdk.Time(end),
		Period:     awssdk.Int32(cpuPeriod),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("instance_id", instanceID).Msg("failed to read CPU metrics")
		return 0
	}

	sum := decimal.Zero
	n := 0
	for _, dp := range out.Datapoints {
		if dp.Average == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*dp.Average))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}

func mapInstance(instance ec2types.Instance) domain.ComputeInstance {
	ci := domain.ComputeInstance{
		ID:            awssdk.ToString(instance.InstanceId),
		InstanceClass: string(instance.InstanceType),
		State:         domain.InstanceStateOther,
		LaunchedAt:    instance.LaunchTime,
		Tags:          make(map[string]string, len(instance.Tags)),
	}
	if instance.State != nil {
		ci.State = domain.ParseInstanceState(string(instance.State.Name))
	}
	for _, tag := range instance.Tags {
		ci.Tags[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
	}
	return ci
}

func describeVolumes(ctx context.Context, client EC2API) ([]domain.BlockVolume, error) {
	volumes := []domain.BlockVolume{}
	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe EBS volumes: %w", err)
		}
		for _, volume := range page.Volumes {
			volumes = append(volumes, domain.BlockVolume{
				ID:          awssdk.ToString(volume.VolumeId),
				SizeGB:      int(awssdk.ToInt32(volume.Size)),
				State:       domain.ParseVolumeState(string(volume.State)),
				Attached:    len(volume.Attachments) > 0,
				VolumeClass: string(volume.VolumeType),
				CreatedAt:   awssdk.ToTime(volume.CreateTime),
			})
		}
	}
	return volumes, nil
}

func describeDatabases(ctx context.Context, client RDSAPI) ([]domain.ManagedDbInstance, error) {
	databases := []domain.ManagedDbInstance{}
	paginator := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe RDS instances: %w", err)
		}
		for _, db := range page.DBInstances {
			databases = append(databases, domain.ManagedDbInstance{
				ID:                 awssdk.ToString(db.DBInstanceIdentifier),
				DBClass:            awssdk.ToString(db.DBInstanceClass),
				Engine:             awssdk.ToString(db.Engine),
				Status:             awssdk.ToString(db.DBInstanceStatus),
				AllocatedStorageGB: int(awssdk.ToInt32(db.AllocatedStorage)),
				MultiAZ:            awssdk.ToBool(db.MultiAZ),
			})
		}
	}
	return databases, nil
}
