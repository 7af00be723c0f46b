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

// Package kerberos acquires short-lived Kerberos credentials from a keytab.
//
// Every acquisition writes its ticket to a private credential cache, so
// callers running joins for different principals never share the process
// default cache. Pass Credential.Env to the processes that need the ticket
// and call Destroy once they have finished.
package kerberos

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/deck"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/types"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrKeytabNotConfigured indicates that no keytab path was configured.
	ErrKeytabNotConfigured = errors.New("keytab not configured")
	// ErrKeytabNotFound indicates that the configured keytab does not exist.
	ErrKeytabNotFound = errors.New("keytab not found")
	// ErrPrincipalNotConfigured indicates that no principal was configured.
	ErrPrincipalNotConfigured = errors.New("principal not configured")
	// ErrKeytabUnreadable indicates that the keytab could not be parsed.
	ErrKeytabUnreadable = errors.New("keytab could not be read")
	// ErrPrincipalNotInKeytab indicates that the keytab holds no key for the principal.
	ErrPrincipalNotInKeytab = errors.New("principal not found in keytab")
	// ErrKinit indicates that the ticket could not be obtained.
	ErrKinit = errors.New("kinit failed")
)

// Runner runs name with args and env added to the environment, returning the
// combined output.
type Runner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// WaitDelay bounds how long a killed kinit's children may keep its output
// open before the run is abandoned.
var WaitDelay = 2 * time.Second

// ExecRunner runs commands on the host.
func ExecRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = WaitDelay
	return cmd.CombinedOutput()
}

// Credential is a ticket for Principal held in a private cache file.
type Credential struct {
	Principal string
	Keytab    string
	Cache     string
	Acquired  time.Time
}

// CacheName returns the credential cache name in KRB5CCNAME form.
func (c *Credential) CacheName() string {
	return "FILE:" + c.Cache
}

// Env returns the environment entries that point Kerberos clients at this
// credential.
func (c *Credential) Env() []string {
	return []string{"KRB5CCNAME=" + c.CacheName()}
}

// Destroy removes the credential cache. It is safe to call more than once.
func (c *Credential) Destroy() error {
	if c == nil || c.Cache == "" {
		return nil
	}
	if err := os.Remove(c.Cache); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential cache %s: %v", c.Cache, err)
	}
	return nil
}

// Manager acquires credentials with kinit.
type Manager struct {
	// Kinit is the path to the kinit binary.
	Kinit string
	// CacheDir holds the per-call credential caches. Empty uses the OS temp dir.
	CacheDir string
	// Timeout bounds a single kinit run. Zero means no limit.
	Timeout time.Duration

	run Runner
}

// NewManager returns a Manager running kinit on the host.
func NewManager(kinit, cacheDir string, timeout time.Duration) *Manager {
	return &Manager{Kinit: kinit, CacheDir: cacheDir, Timeout: timeout, run: ExecRunner}
}

// WithRunner returns a copy of m that starts kinit through r.
func (m *Manager) WithRunner(r Runner) *Manager {
	c := *m
	c.run = r
	return &c
}

// Validate checks that keytabPath and principal are usable. All failing
// checks are reported together.
func Validate(keytabPath, principal string) error {
	var err error
	if keytabPath == "" {
		err = multierr.Append(err, ErrKeytabNotConfigured)
	}
	if keytabPath == "" || !exists(keytabPath) {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrKeytabNotFound, keytabPath))
	}
	if principal == "" {
		err = multierr.Append(err, ErrPrincipalNotConfigured)
	}
	return err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Acquire obtains a ticket for principal from keytabPath into a fresh cache.
func (m *Manager) Acquire(ctx context.Context, keytabPath, principal string) (*Credential, error) {
	if err := Validate(keytabPath, principal); err != nil {
		return nil, err
	}
	deck.Infof("AD: realm keytab is '%s' and using principal '%s'", keytabPath, principal)

	if err := CheckKeytab(keytabPath, principal); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(m.CacheDir, "krb5cc_adrealm_")
	if err != nil {
		return nil, fmt.Errorf("creating credential cache: %v", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("creating credential cache: %v", err)
	}
	cred := &Credential{
		Principal: principal,
		Keytab:    keytabPath,
		Cache:     f.Name(),
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	run := m.run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, cred.Env(), m.Kinit, "-k", "-t", keytabPath, "-c", cred.CacheName(), principal)
	if err != nil {
		if derr := cred.Destroy(); derr != nil {
			deck.Warningf("AD: %v", derr)
		}
		msg := strings.TrimSpace(string(out))
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrKinit, principal, ctx.Err())
		}
		return nil, fmt.Errorf("%w for %s: %v: %s", ErrKinit, principal, err, msg)
	}
	cred.Acquired = time.Now()
	return cred, nil
}

// Principals lists the principals with keys in the keytab at path.
func Principals(path string) ([]string, error) {
	kt, err := load(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range kt.Entries {
		name := strings.Join(e.Principal.Components, "/") + "@" + e.Principal.Realm
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

func load(path string) (*keytab.Keytab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeytabUnreadable, err)
	}
	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeytabUnreadable, path, err)
	}
	return kt, nil
}

// CheckKeytab verifies that the keytab holds a key for principal. A principal
// without a realm matches entries of any realm.
func CheckKeytab(path, principal string) error {
	kt, err := load(path)
	if err != nil {
		return err
	}
	pn, realm := types.ParseSPNString(principal)
	want := strings.Join(pn.NameString, "/")
	for _, e := range kt.Entries {
		if strings.Join(e.Principal.Components, "/") != want {
			continue
		}
		if realm == "" || strings.EqualFold(realm, e.Principal.Realm) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrPrincipalNotInKeytab, principal, path)
}
