// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/urfave/cli/v3"

	myaws "github.com/staranto/amictl/internal/aws"
	"github.com/staranto/amictl/internal/meta"
	"github.com/staranto/amictl/internal/runner"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// BuildSettings maps the resolved command flags onto run settings.
func BuildSettings(cmd *cli.Command) runner.Settings {
	return runner.Settings{
		Region:             cmd.String("region"),
		Profile:            cmd.String("profile"),
		RetentionDefault:   int(cmd.Int("retention-default")),
		SnapshotMaxResults: int32(cmd.Int("snapshot-max-results")),
		DryRun:             cmd.Bool("dry-run"),
	}
}

// LoadAWSConfig loads the SDK config honoring the command's region and
// profile flags.
func LoadAWSConfig(ctx context.Context, s runner.Settings) (awsv2.Config, error) {
	var opts []myaws.Option
	if s.Profile != "" {
		opts = append(opts, myaws.WithProfile(s.Profile))
	}
	if s.Region != "" {
		opts = append(opts, myaws.WithRegion(s.Region))
	}
	return myaws.LoadAWSConfig(ctx, opts...)
}
