// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/backup"
	"github.com/staranto/amictl/internal/config"
	"github.com/staranto/amictl/internal/meta"
)

// BackupCommandAction is the action handler for the "backup" subcommand.
// It runs the backup phase only: image every instance tagged Backup=Yes
// and stamp each image with its DeleteOn tag.
func BackupCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "backup"

	settings := BuildSettings(cmd)
	cfg, err := LoadAWSConfig(ctx, settings)
	if err != nil {
		return err
	}

	o := &backup.Orchestrator{
		EC2:              myaws.NewEC2(cfg),
		RetentionDefault: settings.RetentionDefault,
		DryRun:           settings.DryRun,
	}

	_, err = o.Run(ctx)
	return err
}

// BackupCommandBuilder constructs the cli.Command for "backup", wiring
// metadata, flags, and the action handler.
func BackupCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "backup",
		Usage:     "create DeleteOn-tagged AMIs of instances tagged Backup=Yes",
		UsageText: `amictl backup [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewRetentionDefaultFlag(),
		}, NewGlobalFlags("backup")...),
		Action: BackupCommandAction,
	}
}
