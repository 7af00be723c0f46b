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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/adrealm/config"
	"github.com/google/adrealm/models"
	"github.com/google/deck"
	"github.com/spf13/pflag"
)

// Update updates the settings file with new values from the command line.
// The file is created with defaults when it does not exist.
func Update(args []string) error {
	cFlags := pflag.NewFlagSet("configure", pflag.ContinueOnError)

	fConfig := cFlags.String("config", config.DefaultPath, "Path to the settings file.")
	fListen := cFlags.String("listen", "", "The address the realm API listens on.")
	fUtility := cFlags.String("join_utility", "", "Path to msktutil.")
	fKinit := cFlags.String("kinit", "", "Path to kinit.")
	fCacheDir := cFlags.String("ccache_dir", "", "Directory for per-join credential caches.")
	fJoinTimeout := cFlags.Duration("join_timeout", 0, "Time limit for one msktutil run.")
	fKinitTimeout := cFlags.Duration("kinit_timeout", 0, "Time limit for one kinit run.")

	fDomain := cFlags.String("domain", "", "The DNS domain to configure (eg corp.example.com).")
	fBaseOU := cFlags.String("base-ou", "", "The OU computer accounts of the domain are created in.")
	fPrefix := cFlags.String("prefix", "", "The computer name prefix of the domain.")
	fKeytab := cFlags.String("keytab", "", "The keytab holding the domain's join principal.")
	fPrincipal := cFlags.String("principal", "", "The principal used to join hosts of the domain.")
	fGenerator := cFlags.String("generator", "", "The computer name generator of the domain.")
	fRemove := cFlags.Bool("remove", false, "Remove the domain instead of updating it.")

	if err := cFlags.Parse(args); err != nil {
		return err
	}

	conf, err := config.Load(*fConfig)
	switch {
	case errors.Is(err, os.ErrNotExist):
		deck.Infof("Creating new settings file %s", *fConfig)
		conf = config.Default()
	case err != nil:
		return err
	}

	if *fListen != "" {
		conf.Listen = *fListen
	}
	if *fUtility != "" {
		conf.JoinUtility = *fUtility
	}
	if *fKinit != "" {
		conf.Kinit = *fKinit
	}
	if *fCacheDir != "" {
		conf.CacheDir = *fCacheDir
	}
	if *fJoinTimeout > 0 {
		conf.JoinTimeout = *fJoinTimeout
	}
	if *fKinitTimeout > 0 {
		conf.KinitTimeout = *fKinitTimeout
	}

	domainFlags := []string{"base-ou", "prefix", "keytab", "principal", "generator", "remove"}
	if *fDomain == "" {
		for _, f := range domainFlags {
			if cFlags.Changed(f) {
				return fmt.Errorf("--%s requires --domain", f)
			}
		}
	} else {
		domain := strings.ToLower(strings.TrimSuffix(*fDomain, "."))
		if *fRemove {
			delete(conf.Domains, domain)
		} else {
			d := conf.Domains[domain]
			update := func(name string, dst *string, val string) {
				if cFlags.Changed(name) {
					*dst = val
				}
			}
			update("base-ou", &d.BaseOU, *fBaseOU)
			update("prefix", &d.ComputerNamePrefix, *fPrefix)
			update("keytab", &d.KeytabPath, *fKeytab)
			update("principal", &d.Principal, *fPrincipal)
			update("generator", &d.Generator, *fGenerator)
			if conf.Domains == nil {
				conf.Domains = make(map[string]models.DomainConfig)
			}
			conf.Domains[domain] = d
		}
	}

	if err := config.Validate(conf); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.Save(conf, *fConfig); err != nil {
		return err
	}
	deck.Infof("Settings written to %s at %s", *fConfig, time.Now().Format(time.RFC3339))
	return nil
}
