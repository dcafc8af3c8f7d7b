// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// amictl is the main package for the amictl AMI backup lifecycle tool. It
// wires the CLI and the Lambda handler, delegates to internal packages,
// and serves as the entry point.
package main
