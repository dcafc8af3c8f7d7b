// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/policy"
)

// EC2API is the slice of the EC2 surface the backup phase consumes.
// *ec2.Client satisfies it.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	CreateImage(ctx context.Context, params *ec2.CreateImageInput, optFns ...func(*ec2.Options)) (*ec2.CreateImageOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// Orchestrator runs the backup phase against an EC2 endpoint.
type Orchestrator struct {
	EC2              EC2API
	RetentionDefault int
	DryRun           bool

	// Now anchors every stamp in the run. Left nil, time.Now is used.
	Now func() time.Time
}

// Summary is the per-run outcome of the backup phase.
type Summary struct {
	Examined int
	Created  int
	Skipped  int
	Orphaned int
}

// Run enumerates instances tagged Backup=Yes and creates a DeleteOn-tagged
// AMI for each. Failures are isolated per instance; only the instance
// enumeration itself can fail the phase.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}

	var summary Summary

	instances, err := o.eligibleInstances(ctx)
	if err != nil {
		return summary, err
	}
	log.Infof("instances with %s tag: %d", policy.TagBackup, len(instances))

	for _, instance := range instances {
		summary.Examined++
		o.backupInstance(ctx, instance, now, &summary)
	}

	log.WithFields(log.Fields{
		"examined": summary.Examined,
		"created":  summary.Created,
		"skipped":  summary.Skipped,
		"orphaned": summary.Orphaned,
	}).Info("backup phase complete")

	return summary, nil
}

// eligibleInstances flattens the reservation groupings into a plain
// instance list, filtered server-side on tag:Backup=Yes.
func (o *Orchestrator) eligibleInstances(ctx context.Context) ([]ec2types.Instance, error) {
	var instances []ec2types.Instance

	paginator := ec2.NewDescribeInstancesPaginator(o.EC2, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awsv2.String("tag:" + policy.TagBackup),
				Values: []string{policy.BackupEnabled},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, myaws.WrapOp("DescribeInstances", err)
		}
		for _, reservation := range page.Reservations {
			instances = append(instances, reservation.Instances...)
		}
	}

	return instances, nil
}

func (o *Orchestrator) backupInstance(ctx context.Context, instance ec2types.Instance, now time.Time, summary *Summary) {
	id := awsv2.ToString(instance.InstanceId)
	tags := policy.TagsOf(instance.Tags)

	// The describe filter already selects on Backup=Yes; the local check
	// keeps a stale or hand-fed result set from being imaged anyway.
	if !tags.Eligible() {
		summary.Skipped++
		return
	}

	name := tags.Name()
	log.WithFields(log.Fields{"instance": id, "name": name}).Debug("resolved instance name")

	days, err := tags.RetentionDays(o.RetentionDefault)
	if err != nil {
		log.WithFields(log.Fields{"instance": id}).Errorf("skipping instance: %v", err)
		summary.Skipped++
		return
	}
	log.WithFields(log.Fields{"instance": id, "days": days}).Debug("resolved retention")

	stamp := policy.Stamp(now)
	imageName := fmt.Sprintf("%s-%s-%s", name, id, stamp)

	if o.DryRun {
		log.WithFields(log.Fields{"instance": id}).Infof("dry-run: would create image %s expiring %s",
			imageName, policy.ComputeDeleteOn(now, days))
		return
	}

	out, err := o.EC2.CreateImage(ctx, &ec2.CreateImageInput{
		InstanceId:  instance.InstanceId,
		Name:        awsv2.String(imageName),
		Description: awsv2.String(fmt.Sprintf("AMI of instance %s with instance id %s created on %s", name, id, stamp)),
		NoReboot:    awsv2.Bool(true),
	})
	if err != nil {
		log.WithFields(log.Fields{"instance": id}).Errorf("skipping instance: %v", myaws.WrapOp("CreateImage", err))
		summary.Skipped++
		return
	}

	imageID := awsv2.ToString(out.ImageId)
	log.WithFields(log.Fields{"instance": id, "image": imageID}).Infof("created image %s", imageName)

	deleteOn := policy.ComputeDeleteOn(now, days)
	_, err = o.EC2.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{imageID},
		Tags: []ec2types.Tag{
			{Key: awsv2.String(policy.TagDeleteOn), Value: awsv2.String(deleteOn)},
		},
	})
	if err != nil {
		// The image exists but carries no DeleteOn tag, so the expiry
		// phase will never find it. Surface loudly for the operator.
		log.WithFields(log.Fields{"instance": id, "image": imageID}).
			Warnf("orphaned image: created but %s tagging failed, it will never expire: %v",
				policy.TagDeleteOn, myaws.WrapOp("CreateTags", err))
		summary.Orphaned++
		return
	}

	log.WithFields(log.Fields{"image": imageID}).Infof("%s tag set to %s", policy.TagDeleteOn, deleteOn)
	summary.Created++
}
