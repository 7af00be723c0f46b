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

// Package generators provides computer account name generation for adrealm.
package generators

import (
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// MaxNameLength is the longest computer account name Active Directory accepts.
const MaxNameLength = 15

// Default is the generator used when a domain does not name one.
const Default = "prefix"

var (
	// ErrUnknown is returned when a generator is requested that was never registered.
	ErrUnknown = errors.New("unknown computer name generator")
	// ErrEmptyName is returned when a generator produces an empty name.
	ErrEmptyName = errors.New("generator produced an empty computer name")
)

type generator interface {
	Generate(host, prefix string) (string, error)
}

var (
	mu    sync.Mutex
	atoms atomic.Value
)

func init() {
	atoms.Store(make(map[string]generator))
}

// List returns a sorted list of the available generators by name.
func List() []string {
	gens, _ := atoms.Load().(map[string]generator)
	m := []string{}
	for k := range gens {
		m = append(m, k)
	}
	sort.Strings(m)
	return m
}

// Register registers a new generator. Registering an existing name replaces it.
func Register(name string, g generator) {
	mu.Lock()
	defer mu.Unlock()
	old, _ := atoms.Load().(map[string]generator)
	gens := make(map[string]generator, len(old)+1)
	for k, v := range old {
		gens[k] = v
	}
	gens[name] = g
	atoms.Store(gens)
}

// Run produces a computer name for host using the generator called name. An
// empty name selects Default. The result is never longer than MaxNameLength.
func Run(name, host, prefix string) (string, error) {
	if name == "" {
		name = Default
	}
	gens, _ := atoms.Load().(map[string]generator)
	g, ok := gens[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	out, err := g.Generate(host, prefix)
	if err != nil {
		return "", fmt.Errorf("generator %s: %w", name, err)
	}
	if out == "" {
		return "", ErrEmptyName
	}
	return Truncate(out), nil
}

// Truncate cuts name to its first MaxNameLength characters.
func Truncate(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return string([]rune(name)[:MaxNameLength])
}
