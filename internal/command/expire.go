// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/config"
	"github.com/staranto/amictl/internal/expiry"
	"github.com/staranto/amictl/internal/meta"
)

// ExpireCommandAction is the action handler for the "expire" subcommand.
// It runs the expiry phase only: deregister every self-owned AMI whose
// DeleteOn stamp has passed and sweep up its snapshots.
func ExpireCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "expire"

	settings := BuildSettings(cmd)
	cfg, err := LoadAWSConfig(ctx, settings)
	if err != nil {
		return err
	}

	o := &expiry.Orchestrator{
		EC2:                myaws.NewEC2(cfg),
		STS:                myaws.NewSTS(cfg),
		SnapshotMaxResults: settings.SnapshotMaxResults,
		DryRun:             settings.DryRun,
	}

	_, err = o.Run(ctx)
	return err
}

// ExpireCommandBuilder constructs the cli.Command for "expire", wiring
// metadata, flags, and the action handler.
func ExpireCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "expire",
		Usage:     "deregister AMIs whose DeleteOn stamp has passed, with their snapshots",
		UsageText: `amictl expire [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewSnapshotMaxResultsFlag(),
		}, NewGlobalFlags("expire")...),
		Action: ExpireCommandAction,
	}
}
