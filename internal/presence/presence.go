// Package presence reports whether the tracked app has a running process.
package presence

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo is the subset of process data used for matching
type ProcessInfo struct {
	PID     int32  `json:"pid"`
	Name    string `json:"name"`
	Cmdline string `json:"cmdline,omitempty"`
}

// Lister enumerates running processes
type Lister func(ctx context.Context) ([]ProcessInfo, error)

// Checker looks for processes belonging to an app identifier
type Checker struct {
	list Lister
}

// NewChecker returns a checker backed by the host process table
func NewChecker() *Checker {
	return &Checker{list: listProcesses}
}

// NewCheckerWithLister returns a checker using list
func NewCheckerWithLister(list Lister) *Checker {
	return &Checker{list: list}
}

// Find returns the first process matching appID, or nil if none is running
func (c *Checker) Find(ctx context.Context, appID string) (*ProcessInfo, error) {
	if appID == "" {
		return nil, nil
	}
	procs, err := c.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	for i := range procs {
		if matchProcess(procs[i], appID) {
			return &procs[i], nil
		}
	}
	return nil, nil
}

// Running reports whether any process matches appID
func (c *Checker) Running(ctx context.Context, appID string) (bool, error) {
	p, err := c.Find(ctx, appID)
	return p != nil, err
}

// matchProcess accepts the app's main process, its ":suffix" subprocesses
// and processes launched with the identifier as argv[0].
func matchProcess(p ProcessInfo, appID string) bool {
	if appID == "" {
		return false
	}
	if p.Name == appID || strings.HasPrefix(p.Name, appID+":") {
		return true
	}
	fields := strings.Fields(p.Cmdline)
	if len(fields) == 0 {
		return false
	}
	argv0 := fields[0]
	return argv0 == appID || strings.HasPrefix(argv0, appID+":")
}

func listProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited or is not readable.
			continue
		}
		cmdline, _ := p.CmdlineWithContext(ctx)
		out = append(out, ProcessInfo{PID: p.Pid, Name: name, Cmdline: cmdline})
	}
	return out, nil
}
