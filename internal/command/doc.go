// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI command set for amictl. It wires flags,
// actions, and config-file flag sources for the subcommands.
package command
