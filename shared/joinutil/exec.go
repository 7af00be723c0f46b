// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package joinutil

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/deck"
)

// DefaultPath is the usual location of msktutil.
const DefaultPath = "/usr/sbin/msktutil"

// WaitDelay bounds how long a killed utility's children may keep its output
// open before the run is abandoned.
var WaitDelay = 2 * time.Second

// Result holds what the join utility reported.
type Result struct {
	ExitCode int
	Output   string
	TimedOut bool
}

// Runner starts the utility at path with args and extra environment entries.
// It returns the combined stdout and stderr and the process exit code. err is
// set only when the process could not be run to completion.
type Runner interface {
	Run(ctx context.Context, path string, args, env []string) (output []byte, exitCode int, err error)
}

// ExecRunner runs the utility on the host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, path string, args, env []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = WaitDelay
	out, err := cmd.CombinedOutput()
	var ee *exec.ExitError
	if errors.As(err, &ee) && ctx.Err() == nil {
		return out, ee.ExitCode(), nil
	}
	if err != nil {
		return out, -1, err
	}
	return out, 0, nil
}

// Executor runs join commands.
type Executor struct {
	// Path is the join utility binary.
	Path string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration

	runner Runner
}

// NewExecutor returns an Executor for the utility at path, started through r.
// A nil r runs the utility on the host.
func NewExecutor(path string, timeout time.Duration, r Runner) *Executor {
	if path == "" {
		path = DefaultPath
	}
	if r == nil {
		r = ExecRunner{}
	}
	return &Executor{Path: path, Timeout: timeout, runner: r}
}

// Execute runs c and waits for it to exit. env is added to the utility's
// environment. Failures to start and timeouts are reported in the Result
// with exit code -1.
func (e *Executor) Execute(ctx context.Context, c Command, env []string) Result {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	deck.Infof("AD: Executing '%s %s' to add host to directory.", e.Path, c)

	out, code, err := e.runner.Run(ctx, e.Path, c.Args, env)
	res := Result{ExitCode: code, Output: string(out)}
	if err != nil {
		res.ExitCode = -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.TimedOut = true
		} else if res.Output == "" {
			res.Output = err.Error()
		}
	}
	if res.Output != "" {
		deck.Infof("%s response: %s", e.Path, res.Output)
	}
	return res
}
