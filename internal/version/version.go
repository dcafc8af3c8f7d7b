// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package version carries the build version, overridden at link time via
// -ldflags "-X github.com/staranto/amictl/internal/version.Version=...".
package version

var Version = "dev"
