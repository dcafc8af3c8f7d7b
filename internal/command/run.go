// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/meta"
	"github.com/staranto/amictl/internal/runner"
)

// RunCommandAction is the action handler for the "run" subcommand. It
// executes the backup phase followed by the expiry phase, exactly as a
// scheduled Lambda invocation would.
func RunCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	settings := BuildSettings(cmd)
	cfg, err := LoadAWSConfig(ctx, settings)
	if err != nil {
		return err
	}

	return runner.Run(ctx, myaws.NewEC2(cfg), myaws.NewSTS(cfg), settings)
}

// RunCommandBuilder constructs the cli.Command for "run", wiring metadata,
// flags, and the action handler.
func RunCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run the backup phase then the expiry phase",
		UsageText: `amictl run [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewRetentionDefaultFlag(),
			NewSnapshotMaxResultsFlag(),
		}, NewGlobalFlags("run")...),
		Action: RunCommandAction,
	}
}
