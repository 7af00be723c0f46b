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

package activedirectory

import (
	"errors"
	"testing"

	"github.com/google/adrealm/models"
	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	domains := map[string]models.DomainConfig{
		"corp.example.com": {BaseOU: "OU=Corp", Principal: "corp"},
		"example.com":      {BaseOU: "OU=Root", Principal: "root"},
	}
	tests := []struct {
		fqdn       string
		host       string
		domain     string
		wantConfig models.DomainConfig
		wantErr    error
	}{
		{"web01.corp.example.com", "web01", "corp.example.com", domains["corp.example.com"], nil},
		{"web01.example.com", "web01", "example.com", domains["example.com"], nil},
		{"Web01.CORP.Example.com", "Web01", "corp.example.com", domains["corp.example.com"], nil},
		{"web01.corp.example.com.", "web01", "corp.example.com", domains["corp.example.com"], nil},
		{"web01.lab.corp.example.com", "web01", "lab.corp.example.com", models.DomainConfig{}, ErrNoDomainConfig},
		{"web01", "web01", "", models.DomainConfig{}, ErrNoDomainConfig},
	}
	for _, tt := range tests {
		host, domain, cfg, err := Resolve(domains, tt.fqdn)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Resolve(%s) error = %v, want %v", tt.fqdn, err, tt.wantErr)
		}
		if host != tt.host || domain != tt.domain {
			t.Errorf("Resolve(%s) = %q, %q, want %q, %q", tt.fqdn, host, domain, tt.host, tt.domain)
		}
		if diff := cmp.Diff(tt.wantConfig, cfg); diff != "" {
			t.Errorf("Resolve(%s) config mismatch (-want +got):\n%s", tt.fqdn, diff)
		}
	}
}
