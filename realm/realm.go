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

// Package realm defines the realm backend capability and a registry of
// backend implementations.
package realm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/adrealm/config"
	"github.com/google/adrealm/metric/tracker"
	"github.com/google/adrealm/models"
	"go.uber.org/atomic"
)

// OutcomeKind distinguishes completed operations from unsupported ones.
type OutcomeKind int

const (
	// Completed means the operation was carried out.
	Completed OutcomeKind = iota
	// Unsupported means the backend does not implement the operation. It is
	// not a failure.
	Unsupported
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the result of a backend operation that did not fail.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Backend is implemented by every realm backend.
type Backend interface {
	// CheckRealm validates a realm name before an operation runs. Backends
	// that cannot verify realm names accept all of them.
	CheckRealm(realm string) error
	// Create provisions the computer account for a host.
	Create(ctx context.Context, req models.RealmJoinRequest) (Outcome, error)
	// Delete removes the computer account for hostname.
	Delete(ctx context.Context, realm, hostname string) (Outcome, error)
}

// Factory builds a Backend from settings. metrics may be nil.
type Factory func(s *config.Settings, metrics *tracker.Tracker) (Backend, error)

var (
	mu    sync.Mutex
	atoms atomic.Value
)

func init() {
	atoms.Store(make(map[string]Factory))
}

// Register registers a backend factory under name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	old, _ := atoms.Load().(map[string]Factory)
	m := make(map[string]Factory, len(old)+1)
	for k, v := range old {
		m[k] = v
	}
	m[name] = f
	atoms.Store(m)
}

// List returns the registered backend names, sorted.
func List() []string {
	m, _ := atoms.Load().(map[string]Factory)
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the backend registered as name.
func New(name string, s *config.Settings, metrics *tracker.Tracker) (Backend, error) {
	m, _ := atoms.Load().(map[string]Factory)
	f, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return f(s, metrics)
}
