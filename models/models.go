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

// Package models provides models for configuration and data transfer.
package models

import (
	"strings"

	"github.com/google/adrealm/server"
)

// Response status values.
const (
	ResponseStatusCreated     = "created"
	ResponseStatusUnsupported = "unsupported"
	ResponseStatusFailed      = "failed"
)

// RealmJoinRequest models a request to create a computer account for a host
// joining a realm.
type RealmJoinRequest struct {
	Realm   string `json:"realm" validate:"required"`
	FQDN    string `json:"hostname" validate:"required,contains=."`
	Rebuild bool   `json:"rebuild"`
}

// HostLabel returns the first dot-separated label of the FQDN.
func (r *RealmJoinRequest) HostLabel() string {
	host, _, _ := strings.Cut(r.FQDN, ".")
	return host
}

// Domain returns the lower-cased domain portion of the FQDN, or "" if the
// FQDN has no domain.
func (r *RealmJoinRequest) Domain() string {
	_, domain, _ := strings.Cut(r.FQDN, ".")
	return strings.ToLower(domain)
}

// DomainConfig holds the settings that govern joins for one domain suffix.
type DomainConfig struct {
	BaseOU             string `mapstructure:"base_ou" yaml:"base_ou"`
	ComputerNamePrefix string `mapstructure:"computername_prefix" yaml:"computername_prefix"`
	KeytabPath         string `mapstructure:"keytab_path" yaml:"keytab_path"`
	Principal          string `mapstructure:"principal" yaml:"principal"`

	// (Optional) Generator names the computer name generator. Defaults to "prefix".
	Generator string `mapstructure:"generator" yaml:"generator,omitempty"`
}

// Response models every response returned by the realm API. Create, delete
// and failures all share this envelope.
type Response struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	ErrorCode server.StatusCode `json:"error_code,omitempty"`

	// Join utility failures
	ExitCode *int   `json:"exit_code,omitempty"`
	Output   string `json:"output,omitempty"`
}
