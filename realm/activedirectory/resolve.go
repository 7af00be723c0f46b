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
	"fmt"
	"strings"

	"github.com/google/adrealm/models"
	perrors "github.com/pkg/errors"
)

// ErrNoDomainConfig is returned when a host's domain has no mapping entry.
var ErrNoDomainConfig = perrors.New("no configuration found for the domain")

// Resolve splits fqdn into its host label and domain and returns the
// configuration of that domain. Lookups are case-insensitive; domains must be
// lower case keys. Only an exact domain match is used.
func Resolve(domains map[string]models.DomainConfig, fqdn string) (string, string, models.DomainConfig, error) {
	req := models.RealmJoinRequest{FQDN: fqdn}
	host, domain := req.HostLabel(), strings.TrimSuffix(req.Domain(), ".")
	if host == "" || domain == "" {
		return host, domain, models.DomainConfig{}, fmt.Errorf("%w %q: %q is not a fully qualified hostname", ErrNoDomainConfig, domain, fqdn)
	}
	cfg, ok := domains[domain]
	if !ok {
		return host, domain, models.DomainConfig{}, fmt.Errorf("%w %q", ErrNoDomainConfig, domain)
	}
	return host, domain, cfg, nil
}
