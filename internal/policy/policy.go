// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"strconv"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Tag keys read and written on EC2 resources.
const (
	TagBackup    = "Backup"
	TagName      = "Name"
	TagRetention = "Retention"
	TagDeleteOn  = "DeleteOn"
)

const (
	// BackupEnabled is the only Backup tag value that opts an instance in.
	// Exact match, no truthy coercion.
	BackupEnabled = "Yes"

	// NameNotSpecified is recorded when an instance carries no Name tag.
	NameNotSpecified = "Not Specified"

	// DefaultRetentionDays applies when an instance carries no Retention tag.
	DefaultRetentionDays = 7
)

// Tags is a resource's tag set resolved to a map once at ingestion. When
// the same key appears more than once in the source list (should not
// happen, but must be tolerated) the first occurrence wins.
type Tags map[string]string

// TagsOf builds a Tags map from an EC2 tag list.
func TagsOf(list []ec2types.Tag) Tags {
	tags := make(Tags, len(list))
	for _, t := range list {
		if t.Key == nil {
			continue
		}
		if _, ok := tags[*t.Key]; ok {
			continue
		}
		var v string
		if t.Value != nil {
			v = *t.Value
		}
		tags[*t.Key] = v
	}
	return tags
}

// Error reports a tag value that cannot be interpreted under its expected
// type. It is fatal for the one resource carrying the tag, never for the
// whole run.
type Error struct {
	Tag   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tag %s: value %q: %v", e.Tag, e.Value, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Eligible returns true iff the Backup tag is present with value exactly
// "Yes".
func (t Tags) Eligible() bool {
	return t[TagBackup] == BackupEnabled
}

// Name returns the Name tag value, or "Not Specified" when absent.
func (t Tags) Name() string {
	if name, ok := t[TagName]; ok {
		return name
	}
	return NameNotSpecified
}

// RetentionDays returns the Retention tag value as a day count. A missing
// tag yields def; a present but non-integer value is a policy.Error.
func (t Tags) RetentionDays(def int) (int, error) {
	raw, ok := t[TagRetention]
	if !ok {
		return def, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Tag: TagRetention, Value: raw, Err: err}
	}
	return days, nil
}
