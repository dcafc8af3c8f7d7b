// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	myaws "github.com/staranto/amictl/internal/aws"
)

// Handler is the Lambda entry point. The event is an opaque scheduler
// payload; nothing is returned to the caller beyond the error, which is
// non-nil only when an enumeration failed and no work was possible.
func Handler(ctx context.Context, event json.RawMessage) error {
	s := SettingsFromConfig()
	s.Now = eventClock(event)

	var opts []myaws.Option
	if s.Profile != "" {
		opts = append(opts, myaws.WithProfile(s.Profile))
	}
	if s.Region != "" {
		opts = append(opts, myaws.WithRegion(s.Region))
	}

	cfg, err := myaws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return err
	}

	return Run(ctx, myaws.NewEC2(cfg), myaws.NewSTS(cfg), s)
}

// eventClock anchors the run clock to the scheduled event's own time field
// when it carries one (EventBridge cron events do), so retention math is
// stable across Lambda cold-start latency. Anything unparseable falls back
// to the wall clock.
func eventClock(event []byte) func() time.Time {
	stamp := gjson.GetBytes(event, "time").String()
	if stamp == "" {
		return nil
	}

	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		log.Debugf("ignoring unparseable event time %q: %v", stamp, err)
		return nil
	}

	log.Debugf("run clock anchored to event time %s", stamp)
	return func() time.Time { return at }
}
