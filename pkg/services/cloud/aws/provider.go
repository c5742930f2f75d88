package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// Provider issues remediation calls. It never deletes volumes.
type Provider struct {
	clients ClientFactory
}

func NewProvider(clients ClientFactory) (*Provider, error) {
	if clients == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	return &Provider{clients: clients}, nil
}

func (p *Provider) StopInstance(ctx context.Context, region, instanceID string) error {
	_, err := p.clients.EC2(region).StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("failed to stop EC2 instance: %w", err)
	}
	return nil
}

func (p *Provider) CreateVolumeSnapshot(ctx context.Context, region, volumeID, description string) (string, error) {
	out, err := p.clients.EC2(region).CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:    awssdk.String(volumeID),
		Description: awssdk.String(description),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create EBS snapshot: %w", err)
	}
	return awssdk.ToString(out.SnapshotId), nil
}
