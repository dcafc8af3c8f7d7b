// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
)

// fakeProvider implements the combined EC2 surface plus STS so a full run
// can execute end to end in memory.
type fakeProvider struct {
	instances []ec2types.Instance
	images    []ec2types.Image
	snapshots []ec2types.Snapshot

	createdImages    []string
	taggedValues     map[string]string
	deregistered     []string
	deletedSnapshots []string
}

func (f *fakeProvider) DescribeInstances(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{Reservations: []ec2types.Reservation{{Instances: f.instances}}}, nil
}

func (f *fakeProvider) CreateImage(_ context.Context, params *ec2.CreateImageInput, _ ...func(*ec2.Options)) (*ec2.CreateImageOutput, error) {
	f.createdImages = append(f.createdImages, awsv2.ToString(params.Name))
	return &ec2.CreateImageOutput{ImageId: awsv2.String("ami-0new")}, nil
}

func (f *fakeProvider) CreateTags(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	if f.taggedValues == nil {
		f.taggedValues = map[string]string{}
	}
	for _, r := range params.Resources {
		for _, tag := range params.Tags {
			f.taggedValues[r] = awsv2.ToString(tag.Value)
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}

func (f *fakeProvider) DescribeImages(_ context.Context, _ *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	return &ec2.DescribeImagesOutput{Images: f.images}, nil
}

func (f *fakeProvider) DeregisterImage(_ context.Context, params *ec2.DeregisterImageInput, _ ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error) {
	f.deregistered = append(f.deregistered, awsv2.ToString(params.ImageId))
	return &ec2.DeregisterImageOutput{}, nil
}

func (f *fakeProvider) DescribeSnapshots(_ context.Context, _ *ec2.DescribeSnapshotsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	return &ec2.DescribeSnapshotsOutput{Snapshots: f.snapshots}, nil
}

func (f *fakeProvider) DeleteSnapshot(_ context.Context, params *ec2.DeleteSnapshotInput, _ ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error) {
	f.deletedSnapshots = append(f.deletedSnapshots, awsv2.ToString(params.SnapshotId))
	return &ec2.DeleteSnapshotOutput{}, nil
}

func (f *fakeProvider) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: awsv2.String("123456789012")}, nil
}

func tag(k, v string) ec2types.Tag {
	return ec2types.Tag{Key: awsv2.String(k), Value: awsv2.String(v)}
}

func TestRun_BothPhases(t *testing.T) {
	now := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	fake := &fakeProvider{
		instances: []ec2types.Instance{{
			InstanceId: awsv2.String("i-0web"),
			Tags:       []ec2types.Tag{tag("Backup", "Yes"), tag("Retention", "5"), tag("Name", "web1")},
		}},
		images: []ec2types.Image{{
			ImageId: awsv2.String("ami-0old"),
			Tags:    []ec2types.Tag{tag("DeleteOn", "20240115000000")},
		}},
		snapshots: []ec2types.Snapshot{{
			SnapshotId:  awsv2.String("snap-0old"),
			Description: awsv2.String("Created for ami-0old"),
			VolumeSize:  awsv2.Int32(8),
		}},
	}

	err := Run(context.Background(), fake, fake, Settings{
		RetentionDefault: 7,
		Now:              func() time.Time { return now },
	})
	assert.NoError(t, err)

	// Backup phase: new image named {name}-{id}-{stamp}, tagged five days
	// out at midnight.
	assert.Equal(t, []string{"web1-i-0web-20240120090000"}, fake.createdImages)
	assert.Equal(t, "20240125000000", fake.taggedValues["ami-0new"])

	// Expiry phase: the stale image and its snapshot are gone.
	assert.Equal(t, []string{"ami-0old"}, fake.deregistered)
	assert.Equal(t, []string{"snap-0old"}, fake.deletedSnapshots)
}

func TestEventClock(t *testing.T) {
	clock := eventClock([]byte(`{"detail-type":"Scheduled Event","time":"2024-01-02T03:04:05Z"}`))
	assert.NotNil(t, clock)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), clock().UTC())

	assert.Nil(t, eventClock([]byte(`{}`)), "no time field, wall clock applies")
	assert.Nil(t, eventClock([]byte(`{"time":"yesterday"}`)), "unparseable time, wall clock applies")
}
