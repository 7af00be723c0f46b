/*
Copyright 2016 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/adrealm/config"
	"github.com/google/adrealm/generators"
	"github.com/google/adrealm/shared/kerberos"
	"github.com/google/deck"
	"go.uber.org/multierr"
)

// check validates the credential settings of every configured domain
// without contacting the KDC. Every problem found is reported.
func check(conf *config.Settings, out io.Writer) error {
	domains := make([]string, 0, len(conf.Domains))
	for d := range conf.Domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var errs error
	for _, d := range domains {
		cfg := conf.Domains[d]
		err := kerberos.Validate(cfg.KeytabPath, cfg.Principal)
		if err == nil {
			err = kerberos.CheckKeytab(cfg.KeytabPath, cfg.Principal)
		}
		if _, gerr := generators.Run(cfg.Generator, "check", cfg.ComputerNamePrefix); gerr != nil {
			err = multierr.Append(err, gerr)
		}
		if err != nil {
			var msgs []string
			for _, e := range multierr.Errors(err) {
				msgs = append(msgs, e.Error())
			}
			fmt.Fprintf(out, "%s: FAIL: %s\n", d, strings.Join(msgs, "; "))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d, err))
			continue
		}
		fmt.Fprintf(out, "%s: OK (principal %s, keytab %s)\n", d, cfg.Principal, cfg.KeytabPath)
	}
	if len(domains) == 0 {
		deck.Warning("No domains configured")
	}
	return errs
}
