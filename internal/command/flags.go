// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/amictl/internal/config"
	"github.com/staranto/amictl/internal/expiry"
	"github.com/staranto/amictl/internal/policy"
)

func init() {
	cfg, _ = config.Load()
}

var cfg config.Type

// NewGlobalFlags builds the flag set shared by every subcommand. ns is the
// subcommand name; namespaced config keys win over global ones.
func NewGlobalFlags(ns string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "region",
			Aliases: []string{"r"},
			Usage:   "AWS region. Overrides the shared config chain",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AMICTL_REGION"),
				yaml.YAML(ns+"."+"region", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("region", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "AWS shared config profile",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AMICTL_PROFILE"),
				yaml.YAML(ns+"."+"profile", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("profile", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:  "dry-run",
			Usage: "log every would-be mutation without performing any",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"dry_run", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("dry_run", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
	}

	return
}

// NewRetentionDefaultFlag constructs the flag governing retention for
// instances that carry no Retention tag.
func NewRetentionDefaultFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "retention-default",
		Usage: "days to retain images of instances without a Retention tag",
		Sources: cli.NewValueSourceChain(
			yaml.YAML("backup.retention_default", altsrc.StringSourcer(cfg.Source)),
		),
		Value: policy.DefaultRetentionDays,
	}
}

// NewSnapshotMaxResultsFlag constructs the flag capping the snapshot
// listing in the expiry phase.
func NewSnapshotMaxResultsFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "snapshot-max-results",
		Usage: "cap on the snapshot listing used for cleanup matching",
		Sources: cli.NewValueSourceChain(
			yaml.YAML("expire.snapshot_max_results", altsrc.StringSourcer(cfg.Source)),
		),
		Value: expiry.DefaultSnapshotMaxResults,
	}
}
