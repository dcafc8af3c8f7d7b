// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package expiry drives the expiry phase: find self-owned AMIs whose
// DeleteOn stamp has passed, deregister them, and sweep up the EBS
// snapshots their descriptions point back to.
package expiry
