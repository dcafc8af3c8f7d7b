// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
)

type fakeEC2 struct {
	images    []ec2types.Image
	snapshots []ec2types.Snapshot

	deregisterErr map[string]error // keyed by image id
	deleteSnapErr map[string]error // keyed by snapshot id

	deregistered     []string
	deletedSnapshots []string
	describeSnapIn   *ec2.DescribeSnapshotsInput
}

func (f *fakeEC2) DescribeImages(_ context.Context, _ *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	return &ec2.DescribeImagesOutput{Images: f.images}, nil
}

func (f *fakeEC2) DeregisterImage(_ context.Context, params *ec2.DeregisterImageInput, _ ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error) {
	id := awsv2.ToString(params.ImageId)
	if err := f.deregisterErr[id]; err != nil {
		return nil, err
	}
	f.deregistered = append(f.deregistered, id)
	return &ec2.DeregisterImageOutput{}, nil
}

func (f *fakeEC2) DescribeSnapshots(_ context.Context, params *ec2.DescribeSnapshotsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	f.describeSnapIn = params
	return &ec2.DescribeSnapshotsOutput{Snapshots: f.snapshots}, nil
}

func (f *fakeEC2) DeleteSnapshot(_ context.Context, params *ec2.DeleteSnapshotInput, _ ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error) {
	id := awsv2.ToString(params.SnapshotId)
	if err := f.deleteSnapErr[id]; err != nil {
		return nil, err
	}
	f.deletedSnapshots = append(f.deletedSnapshots, id)
	return &ec2.DeleteSnapshotOutput{}, nil
}

type fakeSTS struct{ account string }

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: awsv2.String(f.account)}, nil
}

func image(id, deleteOn string) ec2types.Image {
	img := ec2types.Image{ImageId: awsv2.String(id)}
	if deleteOn != "" {
		img.Tags = []ec2types.Tag{{Key: awsv2.String("DeleteOn"), Value: awsv2.String(deleteOn)}}
	}
	return img
}

func snapshot(id, description string) ec2types.Snapshot {
	return ec2types.Snapshot{
		SnapshotId:  awsv2.String(id),
		Description: awsv2.String(description),
		VolumeSize:  awsv2.Int32(8),
	}
}

var testNow = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newOrchestrator(fake *fakeEC2) *Orchestrator {
	return &Orchestrator{
		EC2: fake,
		STS: &fakeSTS{account: "123456789012"},
		Now: func() time.Time { return testNow },
	}
}

func TestSelectExpired(t *testing.T) {
	images := []ec2types.Image{
		image("ami-past", "20240101000000"),
		image("ami-today", "20240102000000"),
		image("ami-future", "20240103000000"),
		image("ami-blank", ""),
		{ // tag structurally present, value unreadable
			ImageId: awsv2.String("ami-novalue"),
			Tags:    []ec2types.Tag{{Key: awsv2.String("DeleteOn")}},
		},
	}

	expired := selectExpired(images, testNow)
	assert.Equal(t, []string{"ami-past", "ami-today"}, expired)

	// Enumeration is idempotent: a second pass over the same listing
	// yields the same candidate set.
	assert.Equal(t, expired, selectExpired(images, testNow))
}

func TestRun_DeregistersAndSweepsSnapshots(t *testing.T) {
	fake := &fakeEC2{
		images: []ec2types.Image{image("ami-0dead", "20240101000000")},
		snapshots: []ec2types.Snapshot{
			snapshot("snap-1", "Created by CreateImage(i-0abc) for ami-0dead from vol-1"),
			snapshot("snap-2", "Created by CreateImage(i-0abc) for ami-0dead from vol-2"),
			snapshot("snap-3", "Created by CreateImage(i-0xyz) for ami-0live from vol-3"),
		},
	}

	summary, err := newOrchestrator(fake).Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Summary{Examined: 1, Expired: 1, Deregistered: 1, SnapshotsDeleted: 2}, summary)
	assert.Equal(t, []string{"ami-0dead"}, fake.deregistered)
	assert.ElementsMatch(t, []string{"snap-1", "snap-2"}, fake.deletedSnapshots)

	// Ownership filter uses the caller's account and the listing cap.
	assert.Equal(t, []string{"123456789012"}, fake.describeSnapIn.OwnerIds)
	assert.Equal(t, int32(DefaultSnapshotMaxResults), awsv2.ToInt32(fake.describeSnapIn.MaxResults))
}

// The ancestor of this code matched the entire to-delete list against each
// snapshot description in a single pass, so no snapshot ever matched, and
// it also required the match to start past offset 0. Both are fixed here:
// matching iterates per image id and a description that leads with the id
// still matches. This test pins the fixed behavior.
func TestRun_SnapshotMatchingIsPerImage(t *testing.T) {
	fake := &fakeEC2{
		images: []ec2types.Image{
			image("ami-0one", "20240101000000"),
			image("ami-0two", "20240101000000"),
		},
		snapshots: []ec2types.Snapshot{
			snapshot("snap-one", "ami-0one root volume"), // id at offset 0
			snapshot("snap-two", "copy for ami-0two"),
			snapshot("snap-keep", "unrelated"),
		},
	}

	summary, err := newOrchestrator(fake).Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.SnapshotsDeleted)
	assert.ElementsMatch(t, []string{"snap-one", "snap-two"}, fake.deletedSnapshots)
}

func TestRun_DeregisterFailureIsolated(t *testing.T) {
	fake := &fakeEC2{
		images: []ec2types.Image{
			image("ami-0fail", "20240101000000"),
			image("ami-0ok", "20240101000000"),
		},
		snapshots: []ec2types.Snapshot{
			snapshot("snap-fail", "for ami-0fail"),
			snapshot("snap-ok", "for ami-0ok"),
		},
		deregisterErr: map[string]error{"ami-0fail": errors.New("InvalidAMIID.Unavailable")},
	}

	summary, err := newOrchestrator(fake).Run(context.Background())
	assert.NoError(t, err, "a per-image failure must not abort the run")
	assert.Equal(t, 1, summary.Deregistered)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, []string{"ami-0ok"}, fake.deregistered)
	// Snapshots of the failed image stay referenced, so they are not
	// attempted.
	assert.Equal(t, []string{"snap-ok"}, fake.deletedSnapshots)
}

func TestRun_SnapshotDeletionBestEffort(t *testing.T) {
	fake := &fakeEC2{
		images: []ec2types.Image{image("ami-0dead", "20240101000000")},
		snapshots: []ec2types.Snapshot{
			snapshot("snap-stuck", "for ami-0dead"),
			snapshot("snap-free", "also for ami-0dead"),
		},
		deleteSnapErr: map[string]error{"snap-stuck": errors.New("InvalidSnapshot.InUse")},
	}

	summary, err := newOrchestrator(fake).Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Deregistered)
	assert.Equal(t, 1, summary.SnapshotsDeleted)
	assert.Equal(t, []string{"snap-free"}, fake.deletedSnapshots)
}

func TestRun_NothingExpired(t *testing.T) {
	fake := &fakeEC2{images: []ec2types.Image{image("ami-0live", "20240103000000")}}

	summary, err := newOrchestrator(fake).Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Summary{Examined: 1}, summary)
	assert.Nil(t, fake.describeSnapIn, "snapshots are not listed when nothing is due")
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	fake := &fakeEC2{
		images:    []ec2types.Image{image("ami-0dead", "20240101000000")},
		snapshots: []ec2types.Snapshot{snapshot("snap-1", "for ami-0dead")},
	}

	o := newOrchestrator(fake)
	o.DryRun = true

	summary, err := o.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Summary{Examined: 1, Expired: 1}, summary)
	assert.Empty(t, fake.deregistered)
	assert.Empty(t, fake.deletedSnapshots)
}
