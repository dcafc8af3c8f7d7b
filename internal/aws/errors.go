// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ProviderError wraps a failed AWS API call with the operation name so
// callers can log and continue without losing track of what was attempted.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if code := e.Code(); code != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Code returns the AWS API error code when the underlying error carries
// one, else "".
func (e *ProviderError) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// WrapOp wraps err in a ProviderError for the named operation. Returns nil
// when err is nil so call sites can wrap unconditionally.
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Op: op, Err: err}
}
