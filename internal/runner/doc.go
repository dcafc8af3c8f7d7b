// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package runner executes the backup and expiry phases in sequence and
// adapts the pair to the Lambda scheduled-event trigger.
package runner
