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

// Package activedirectory provides the Active Directory realm backend. It
// precreates computer accounts with msktutil using a per-domain service
// principal.
package activedirectory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/adrealm/config"
	"github.com/google/adrealm/generators"
	"github.com/google/adrealm/generators/prefix"
	"github.com/google/adrealm/metric/tracker"
	"github.com/google/adrealm/models"
	"github.com/google/adrealm/realm"
	"github.com/google/adrealm/shared/joinutil"
	"github.com/google/adrealm/shared/kerberos"
	"github.com/google/adrealm/validators"
	"github.com/google/deck"
)

// Name is the backend's registered name.
const Name = "activedirectory"

const deleteMessage = "Currently not implemented. Delete host manually in AD."

// Metric names updated by the provider.
const (
	MetricJoinAttempt   = "join_attempt"
	MetricJoinSuccess   = "join_success"
	MetricJoinFail      = "join_fail"
	MetricDeleteRequest = "delete_request"
	MetricInFlight      = "joins_in_flight"
)

// CredentialSource obtains a Kerberos credential for a principal.
type CredentialSource interface {
	Acquire(ctx context.Context, keytabPath, principal string) (*kerberos.Credential, error)
}

// Executor runs a join utility command.
type Executor interface {
	Execute(ctx context.Context, c joinutil.Command, env []string) joinutil.Result
}

// Provider implements realm.Backend for Active Directory.
type Provider struct {
	domains map[string]models.DomainConfig
	creds   CredentialSource
	exec    Executor
	metrics *tracker.Tracker
}

func init() {
	realm.Register(Name, func(s *config.Settings, metrics *tracker.Tracker) (realm.Backend, error) {
		creds := kerberos.NewManager(s.Kinit, s.CacheDir, s.KinitTimeout)
		exec := joinutil.NewExecutor(s.JoinUtility, s.JoinTimeout, nil)
		return New(s.Domains, creds, exec).WithMetrics(metrics), nil
	})
}

// New returns a Provider for the given domain mapping.
func New(domains map[string]models.DomainConfig, creds CredentialSource, exec Executor) *Provider {
	m := make(map[string]models.DomainConfig, len(domains))
	for k, v := range domains {
		m[strings.ToLower(k)] = v
	}
	return &Provider{domains: m, creds: creds, exec: exec}
}

// WithMetrics sets the tracker updated by p and returns p.
func (p *Provider) WithMetrics(t *tracker.Tracker) *Provider {
	p.metrics = t
	return p
}

// CheckRealm accepts every realm. Realm names are passed to msktutil as given.
func (p *Provider) CheckRealm(name string) error {
	return nil
}

// Create precreates the computer account for req.FQDN in req.Realm.
func (p *Provider) Create(ctx context.Context, req models.RealmJoinRequest) (realm.Outcome, error) {
	p.metrics.Increment(MetricJoinAttempt)
	p.metrics.Adjust(MetricInFlight, 1)
	defer p.metrics.Adjust(MetricInFlight, -1)

	out, err := p.create(ctx, req)
	if err != nil {
		p.metrics.Increment(MetricJoinFail)
		p.metrics.Increment(fmt.Sprintf("failure_%d", realm.Status(err)))
		deck.Errorf("AD: join of %s to %s failed: %v", req.FQDN, req.Realm, err)
		return realm.Outcome{}, err
	}
	p.metrics.Increment(MetricJoinSuccess)
	return out, nil
}

func (p *Provider) create(ctx context.Context, req models.RealmJoinRequest) (realm.Outcome, error) {
	if err := p.CheckRealm(req.Realm); err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %v", realm.ErrInvalidRequest, err)
	}
	if err := validators.Run(ctx, &req, validators.New()...); err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %w", realm.ErrInvalidRequest, err)
	}
	if req.Rebuild {
		deck.Warningf("AD: rebuild is not supported, creating account for %s", req.FQDN)
	}

	host, domain, cfg, err := Resolve(p.domains, req.FQDN)
	if err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %w", realm.ErrConfiguration, err)
	}
	deck.Infof("AD: realm base_ou for %s is '%s'", domain, cfg.BaseOU)
	deck.Infof("AD: realm computername_prefix for %s is '%s'", domain, cfg.ComputerNamePrefix)

	name, err := generators.Run(cfg.Generator, host, cfg.ComputerNamePrefix)
	if err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %w", realm.ErrConfiguration, err)
	}
	if (cfg.Generator == "" || cfg.Generator == prefix.Name) && prefix.Truncated(host, cfg.ComputerNamePrefix) {
		deck.Warningf("AD: computer name for %s truncated to %q", req.FQDN, name)
	}

	cred, err := p.creds.Acquire(ctx, cfg.KeytabPath, cfg.Principal)
	if err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %w", realm.ErrCredential, err)
	}
	defer func() {
		if err := cred.Destroy(); err != nil {
			deck.Warningf("AD: %v", err)
		}
	}()

	cmd := joinutil.Build(req.Realm, req.FQDN, name, cfg.BaseOU)
	res := p.exec.Execute(ctx, cmd, cred.Env())
	msg, err := joinutil.Interpret(req.FQDN, res)
	if err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %w", realm.ErrExternalTool, err)
	}
	deck.Infof("AD: %s", msg)
	return realm.Outcome{Kind: realm.Completed, Message: msg}, nil
}

// Delete does not remove computer accounts. It reports the operation as
// unsupported so callers can tell it apart from a failure.
func (p *Provider) Delete(ctx context.Context, name, hostname string) (realm.Outcome, error) {
	if err := p.CheckRealm(name); err != nil {
		return realm.Outcome{}, fmt.Errorf("%w: %v", realm.ErrInvalidRequest, err)
	}
	p.metrics.Increment(MetricDeleteRequest)
	deck.Warningf("AD: delete of %s from %s requested: %s", hostname, name, deleteMessage)
	return realm.Outcome{Kind: realm.Unsupported, Message: deleteMessage}, nil
}
