// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"
)

// FileChecker requires a readable, non-empty regular file. An empty path
// means the file is optional and reports healthy.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for path.
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured"}
	}

	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{Status: StatusUnhealthy, Message: c.path, Error: "file not found"}
	}
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: c.path, Error: err.Error()}
	}
	defer f.Close()

	info, err := f.Stat()
	switch {
	case err != nil:
		return CheckResult{Status: StatusUnhealthy, Message: c.path, Error: err.Error()}
	case info.IsDir():
		return CheckResult{Status: StatusUnhealthy, Message: c.path, Error: "expected file, got directory"}
	case info.Size() == 0:
		return CheckResult{Status: StatusDegraded, Message: c.path + " is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: c.path}
}

// SnapshotChecker reports on the published configuration snapshot.
type SnapshotChecker struct {
	current func() (epoch uint64, loadedAt time.Time, reloadErr error)
}

// NewSnapshotChecker creates a checker from a snapshot accessor. A zero
// epoch means nothing has been published yet.
func NewSnapshotChecker(current func() (uint64, time.Time, error)) *SnapshotChecker {
	return &SnapshotChecker{current: current}
}

func (c *SnapshotChecker) Name() string { return "config" }

func (c *SnapshotChecker) Check(context.Context) CheckResult {
	epoch, loadedAt, reloadErr := c.current()
	switch {
	case epoch == 0:
		return CheckResult{Status: StatusUnhealthy, Message: "no configuration published yet"}
	case reloadErr != nil:
		return CheckResult{
			Status:  StatusDegraded,
			Message: "last reload rejected, serving epoch " + strconv.FormatUint(epoch, 10),
			Error:   reloadErr.Error(),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "epoch " + strconv.FormatUint(epoch, 10) + " applied " + loadedAt.UTC().Format(time.RFC3339),
	}
}

// FuncChecker adapts a check function. Failures report failStatus, which
// lets optional components degrade the service instead of failing it.
type FuncChecker struct {
	name       string
	failStatus Status
	check      func(ctx context.Context) error
}

// NewFuncChecker creates a checker from check.
func NewFuncChecker(name string, failStatus Status, check func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, failStatus: failStatus, check: check}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	if err := c.check(ctx); err != nil {
		return CheckResult{Status: c.failStatus, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
