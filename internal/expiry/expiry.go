// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package expiry

import (
	"context"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/dustin/go-humanize"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/policy"
)

// DefaultSnapshotMaxResults caps the snapshot listing when no override is
// configured.
const DefaultSnapshotMaxResults = 1000

// EC2API is the slice of the EC2 surface the expiry phase consumes.
// *ec2.Client satisfies it.
type EC2API interface {
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DeregisterImage(ctx context.Context, params *ec2.DeregisterImageInput, optFns ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error)
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
}

// STSAPI resolves the caller's account for snapshot ownership filtering.
// *sts.Client satisfies it.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Orchestrator runs the expiry phase against EC2 and STS endpoints.
type Orchestrator struct {
	EC2                EC2API
	STS                STSAPI
	SnapshotMaxResults int32
	DryRun             bool

	// Now anchors the expiry comparison. Left nil, time.Now is used.
	Now func() time.Time
}

// Summary is the per-run outcome of the expiry phase.
type Summary struct {
	Examined         int
	Expired          int
	Deregistered     int
	SnapshotsDeleted int
	Failures         int
}

// Run deregisters every self-owned image whose DeleteOn stamp is due and
// deletes the snapshots its description ties back to it. Failures are
// isolated per image; only the enumerations (images, caller identity,
// snapshots) can fail the phase.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}

	var summary Summary

	images, err := o.taggedImages(ctx)
	if err != nil {
		return summary, err
	}
	summary.Examined = len(images)

	expired := selectExpired(images, now)
	summary.Expired = len(expired)
	log.Infof("images due for deletion: %d of %d", len(expired), len(images))

	if len(expired) == 0 {
		return summary, nil
	}

	snapshots, err := o.ownedSnapshots(ctx)
	if err != nil {
		return summary, err
	}

	for _, imageID := range expired {
		o.deleteImage(ctx, imageID, snapshots, &summary)
	}

	log.WithFields(log.Fields{
		"examined":     summary.Examined,
		"expired":      summary.Expired,
		"deregistered": summary.Deregistered,
		"snapshots":    summary.SnapshotsDeleted,
		"failures":     summary.Failures,
	}).Info("expiry phase complete")

	return summary, nil
}

// taggedImages lists self-owned images carrying a DeleteOn tag.
func (o *Orchestrator) taggedImages(ctx context.Context) ([]ec2types.Image, error) {
	out, err := o.EC2.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Owners: []string{"self"},
		Filters: []ec2types.Filter{
			{
				Name:   awsv2.String("tag-key"),
				Values: []string{policy.TagDeleteOn},
			},
		},
	})
	if err != nil {
		return nil, myaws.WrapOp("DescribeImages", err)
	}
	return out.Images, nil
}

// selectExpired picks the ids of images whose DeleteOn stamp is due at
// now. An image whose tag value cannot be read is left alone.
func selectExpired(images []ec2types.Image, now time.Time) []string {
	var expired []string
	for _, image := range images {
		tags := policy.TagsOf(image.Tags)
		if policy.Expired(tags[policy.TagDeleteOn], now) {
			expired = append(expired, awsv2.ToString(image.ImageId))
		}
	}
	return expired
}

// ownedSnapshots lists the caller's snapshots once for the whole run.
// DeleteOn only ever moves images from not-due to due, so the listing does
// not need refreshing between image deletions.
func (o *Orchestrator) ownedSnapshots(ctx context.Context) ([]ec2types.Snapshot, error) {
	identity, err := o.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, myaws.WrapOp("GetCallerIdentity", err)
	}

	maxResults := o.SnapshotMaxResults
	if maxResults == 0 {
		maxResults = DefaultSnapshotMaxResults
	}

	out, err := o.EC2.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{
		OwnerIds:   []string{awsv2.ToString(identity.Account)},
		MaxResults: awsv2.Int32(maxResults),
	})
	if err != nil {
		return nil, myaws.WrapOp("DescribeSnapshots", err)
	}
	return out.Snapshots, nil
}

func (o *Orchestrator) deleteImage(ctx context.Context, imageID string, snapshots []ec2types.Snapshot, summary *Summary) {
	if o.DryRun {
		log.WithFields(log.Fields{"image": imageID}).Info("dry-run: would deregister image")
		for _, snapshot := range matchSnapshots(snapshots, imageID) {
			log.WithFields(log.Fields{"image": imageID, "snapshot": awsv2.ToString(snapshot.SnapshotId)}).
				Info("dry-run: would delete snapshot")
		}
		return
	}

	log.WithFields(log.Fields{"image": imageID}).Info("deregistering image")
	_, err := o.EC2.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: awsv2.String(imageID),
	})
	if err != nil {
		// The snapshots are still referenced by the image, so there is no
		// point attempting them.
		log.WithFields(log.Fields{"image": imageID}).Errorf("skipping image: %v", myaws.WrapOp("DeregisterImage", err))
		summary.Failures++
		return
	}
	summary.Deregistered++

	for _, snapshot := range matchSnapshots(snapshots, imageID) {
		snapshotID := awsv2.ToString(snapshot.SnapshotId)
		size := humanize.IBytes(uint64(awsv2.ToInt32(snapshot.VolumeSize)) * humanize.GiByte)

		_, err := o.EC2.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
			SnapshotId: snapshot.SnapshotId,
		})
		if err != nil {
			log.WithFields(log.Fields{"image": imageID, "snapshot": snapshotID}).
				Warnf("snapshot not deleted: %v", myaws.WrapOp("DeleteSnapshot", err))
			continue
		}
		log.WithFields(log.Fields{"image": imageID, "snapshot": snapshotID}).
			Infof("deleted snapshot (%s)", size)
		summary.SnapshotsDeleted++
	}
}

// matchSnapshots returns the snapshots whose description mentions imageID.
// The description is free text written by EC2 when the image was created;
// this is a best-effort association, not a foreign key. Matching runs per
// image id, anywhere in the description including offset 0.
func matchSnapshots(snapshots []ec2types.Snapshot, imageID string) []ec2types.Snapshot {
	var matched []ec2types.Snapshot
	if imageID == "" {
		return matched
	}
	for _, snapshot := range snapshots {
		if strings.Contains(awsv2.ToString(snapshot.Description), imageID) {
			matched = append(matched, snapshot)
		}
	}
	return matched
}
