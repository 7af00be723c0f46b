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

// Package prefix provides a generator that derives names carrying a domain prefix.
package prefix

import (
	"strings"
	"unicode/utf8"

	"github.com/google/adrealm/generators"
	"github.com/pkg/errors"
)

// Name is the generator's registered name.
const Name = "prefix"

// ErrInvalidHost is returned if the host label is empty.
var ErrInvalidHost = errors.New("prefix generator requires a host label")

func init() {
	generators.Register(Name, &pf{})
}

type pf struct{}

// Generate runs this generator.
func (p *pf) Generate(host, prefix string) (string, error) {
	if host == "" {
		return "", ErrInvalidHost
	}
	return Derive(host, prefix), nil
}

// Derive returns host unchanged if it already starts with prefix (compared
// case-insensitively), or prefix+host otherwise, cut to the first
// generators.MaxNameLength characters.
//
// Two hosts sharing their first 15 characters derive the same name.
func Derive(host, prefix string) string {
	name := host
	if !hasPrefixFold(host, prefix) {
		name = prefix + host
	}
	return generators.Truncate(name)
}

// Truncated reports whether Derive would cut the name for host and prefix.
func Truncated(host, prefix string) bool {
	n := utf8.RuneCountInString(host)
	if !hasPrefixFold(host, prefix) {
		n += utf8.RuneCountInString(prefix)
	}
	return n > generators.MaxNameLength
}

func hasPrefixFold(s, prefix string) bool {
	rs, rp := []rune(s), []rune(prefix)
	return len(rs) >= len(rp) && strings.EqualFold(string(rs[:len(rp)]), prefix)
}
