// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws contains AWS-related helpers and adapters used by the backup
// and expiry orchestrators that interact with EC2 and STS.
package aws
