// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/staranto/amictl/internal/command"
	mylog "github.com/staranto/amictl/internal/log"
	"github.com/staranto/amictl/internal/runner"
	"github.com/staranto/amictl/internal/version"
)

var ctx = context.Background()

func main() {
	mylog.InitLogger()

	// Inside Lambda the runtime drives the handler; the CLI surface only
	// exists for operators running the phases by hand.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(runner.Handler)
		return
	}

	os.Exit(realMain())
}

func realMain() int {
	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}
