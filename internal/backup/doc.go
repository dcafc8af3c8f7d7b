// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package backup drives the backup phase: enumerate instances opted in via
// the Backup tag, create a no-reboot AMI of each, and stamp the AMI with
// its DeleteOn expiration tag.
package backup
