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

// Package config loads and saves the adrealm settings file.
//
// Settings are read from YAML with environment overrides using the ADREALM_
// prefix, e.g. ADREALM_JOIN_TIMEOUT=5m. Domain names in ad_domain_mapping are
// matched in lower case.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/adrealm/models"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the settings file used when none is given.
const DefaultPath = "/etc/adrealm/realm_ad.yml"

// Settings holds the daemon configuration.
type Settings struct {
	Listen       string                         `mapstructure:"listen" validate:"required"`
	Backend      string                         `mapstructure:"backend" validate:"required"`
	JoinUtility  string                         `mapstructure:"join_utility" validate:"required"`
	Kinit        string                         `mapstructure:"kinit" validate:"required"`
	CacheDir     string                         `mapstructure:"ccache_dir"`
	JoinTimeout  time.Duration                  `mapstructure:"join_timeout" validate:"gt=0"`
	KinitTimeout time.Duration                  `mapstructure:"kinit_timeout" validate:"gt=0"`
	Domains      map[string]models.DomainConfig `mapstructure:"ad_domain_mapping"`

	// TLS is enabled when both TLSCert and TLSKey are set.
	TLSCert      string   `mapstructure:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey       string   `mapstructure:"tls_key" validate:"required_with=TLSCert"`
	ClientCA     string   `mapstructure:"client_ca" validate:"excluded_without=TLSCert"`
	TrustedHosts []string `mapstructure:"trusted_hosts" validate:"excluded_without=ClientCA"`
}

// file is the on-disk layout written by Save.
type file struct {
	Listen       string                         `yaml:"listen"`
	Backend      string                         `yaml:"backend"`
	JoinUtility  string                         `yaml:"join_utility"`
	Kinit        string                         `yaml:"kinit"`
	CacheDir     string                         `yaml:"ccache_dir,omitempty"`
	JoinTimeout  string                         `yaml:"join_timeout"`
	KinitTimeout string                         `yaml:"kinit_timeout"`
	Domains      map[string]models.DomainConfig `yaml:"ad_domain_mapping"`
	TLSCert      string                         `yaml:"tls_cert,omitempty"`
	TLSKey       string                         `yaml:"tls_key,omitempty"`
	ClientCA     string                         `yaml:"client_ca,omitempty"`
	TrustedHosts []string                       `yaml:"trusted_hosts,omitempty"`
}

var defaults = map[string]any{
	"listen":        "127.0.0.1:8443",
	"backend":       "activedirectory",
	"join_utility":  "/usr/sbin/msktutil",
	"kinit":         "/usr/bin/kinit",
	"ccache_dir":    "",
	"join_timeout":  "2m",
	"kinit_timeout": "30s",
	"tls_cert":      "",
	"tls_key":       "",
	"client_ca":     "",
}

// Default returns settings with every default applied and no domains.
func Default() *Settings {
	return &Settings{
		Listen:       defaults["listen"].(string),
		Backend:      defaults["backend"].(string),
		JoinUtility:  defaults["join_utility"].(string),
		Kinit:        defaults["kinit"].(string),
		JoinTimeout:  2 * time.Minute,
		KinitTimeout: 30 * time.Second,
		Domains:      map[string]models.DomainConfig{},
	}
}

// Load reads the settings file at path. An empty path reads DefaultPath.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath
	}
	// Domain names contain dots, so keys are split on "::" instead.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix("ADREALM")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	s.Domains = normalize(s.Domains)
	if err := Validate(s); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return s, nil
}

func normalize(in map[string]models.DomainConfig) map[string]models.DomainConfig {
	out := make(map[string]models.DomainConfig, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSuffix(k, "."))] = v
	}
	return out
}

// Validate checks the static settings. Per-domain credentials are checked
// when a join runs.
func Validate(s *Settings) error {
	return validator.New().Struct(s)
}

// Save writes s to path as YAML, creating the parent directory if needed.
func Save(s *Settings, path string) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(&file{
		Listen:       s.Listen,
		Backend:      s.Backend,
		JoinUtility:  s.JoinUtility,
		Kinit:        s.Kinit,
		CacheDir:     s.CacheDir,
		JoinTimeout:  s.JoinTimeout.String(),
		KinitTimeout: s.KinitTimeout.String(),
		Domains:      normalize(s.Domains),
		TLSCert:      s.TLSCert,
		TLSKey:       s.TLSKey,
		ClientCA:     s.ClientCA,
		TrustedHosts: s.TrustedHosts,
	})
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	// Settings name keytabs and principals.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
