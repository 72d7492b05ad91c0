// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cronexpr parses the cron lines carried by nightly schedulers.
// Lines use the standard five fields (minute hour dom month dow) or an
// @descriptor such as @daily.
package cronexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrEmpty is returned for blank expressions.
var ErrEmpty = errors.New("empty cron expression")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse parses expr into a schedule.
func Parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmpty
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched, nil
}

// Validate reports whether expr is a usable cron line.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// Next returns the first activation strictly after from.
func Next(expr string, from time.Time) (time.Time, error) {
	sched, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
