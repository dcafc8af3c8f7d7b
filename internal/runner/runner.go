// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/staranto/amictl/internal/backup"
	"github.com/staranto/amictl/internal/config"
	"github.com/staranto/amictl/internal/expiry"
	"github.com/staranto/amictl/internal/policy"
)

// EC2API is the union of the EC2 surfaces both phases consume. *ec2.Client
// satisfies it.
type EC2API interface {
	backup.EC2API
	expiry.EC2API
}

// Settings carries the knobs a run honors. Zero values fall back to the
// package defaults.
type Settings struct {
	Region             string
	Profile            string
	RetentionDefault   int
	SnapshotMaxResults int32
	DryRun             bool

	// Now anchors every stamp and comparison in the run. Left nil,
	// wall-clock time is used.
	Now func() time.Time
}

// SettingsFromConfig resolves run settings from amictl.yaml, falling back
// to the package defaults when no config file is present.
func SettingsFromConfig() Settings {
	var s Settings
	s.Region, _ = config.GetString("region", "")
	s.Profile, _ = config.GetString("profile", "")
	s.RetentionDefault, _ = config.GetInt("backup.retention_default", policy.DefaultRetentionDays)
	maxResults, _ := config.GetInt("expire.snapshot_max_results", expiry.DefaultSnapshotMaxResults)
	s.SnapshotMaxResults = int32(maxResults)
	s.DryRun, _ = config.GetBool("dry_run", false)
	return s
}

// Run executes the backup phase and then the expiry phase. Per-item
// failures inside a phase are already absorbed by the orchestrators; an
// error out of a phase means its enumeration failed and the invocation is
// done.
func Run(ctx context.Context, ec2c EC2API, stsc expiry.STSAPI, s Settings) error {
	if s.DryRun {
		log.Info("dry-run mode: no resources will be created or deleted")
	}

	b := &backup.Orchestrator{
		EC2:              ec2c,
		RetentionDefault: s.RetentionDefault,
		DryRun:           s.DryRun,
		Now:              s.Now,
	}
	if _, err := b.Run(ctx); err != nil {
		return err
	}

	e := &expiry.Orchestrator{
		EC2:                ec2c,
		STS:                stsc,
		SnapshotMaxResults: s.SnapshotMaxResults,
		DryRun:             s.DryRun,
		Now:                s.Now,
	}
	if _, err := e.Run(ctx); err != nil {
		return err
	}

	return nil
}
