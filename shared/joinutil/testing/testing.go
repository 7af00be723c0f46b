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

// Package testing provides a fake join utility for testing adrealm.
package testing

import (
	"context"
	"fmt"
	"sync"
)

// Call records one invocation of the fake join utility.
type Call struct {
	Path string
	Args []string
	Env  []string
}

// Flag returns the value following name in the call's arguments.
func (c Call) Flag(name string) (string, bool) {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == name {
			return c.Args[i+1], true
		}
	}
	return "", false
}

// InactiveDirectory provides a fake AD structure for testing. It implements
// joinutil.Runner.
type InactiveDirectory struct {
	// Computers holds the precreated computer account names.
	Computers map[string]bool

	// When ExitCode is non-zero every run fails with ExitCode and Output.
	ExitCode int
	Output   string

	// Hang blocks every run until its context is done.
	Hang bool

	mu    sync.Mutex
	calls []Call
}

// NewInactiveDirectory returns a new InactiveDirectory instance for testing.
func NewInactiveDirectory() *InactiveDirectory {
	return &InactiveDirectory{
		Computers: make(map[string]bool),
	}
}

// Calls returns the recorded invocations.
func (id *InactiveDirectory) Calls() []Call {
	id.mu.Lock()
	defer id.mu.Unlock()
	return append([]Call(nil), id.calls...)
}

// Run precreates the computer named by --computer-name.
func (id *InactiveDirectory) Run(ctx context.Context, path string, args, env []string) ([]byte, int, error) {
	c := Call{
		Path: path,
		Args: append([]string(nil), args...),
		Env:  append([]string(nil), env...),
	}
	id.mu.Lock()
	id.calls = append(id.calls, c)
	id.mu.Unlock()

	if id.Hang {
		<-ctx.Done()
		return []byte(id.Output), -1, ctx.Err()
	}
	if id.ExitCode != 0 {
		return []byte(id.Output), id.ExitCode, nil
	}

	name, ok := c.Flag("--computer-name")
	if !ok || name == "" {
		return []byte("Error: no computer name given\n"), 1, nil
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.Computers[name] {
		return []byte(fmt.Sprintf("Error: computer account %s already exists\n", name)), 1, nil
	}
	id.Computers[name] = true
	return []byte(id.Output), 0, nil
}
