// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package policy derives backup eligibility, naming, and retention from EC2
// resource tags, and computes the DeleteOn expiration stamp carried on
// backup AMIs.
package policy
