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
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/adrealm/config"
	"github.com/google/adrealm/endpoints"
	"github.com/google/adrealm/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

func TestUpdateCreatesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	args := []string{
		"--config", path,
		"--join_timeout", "90s",
		"--domain", "Corp.Example.com.",
		"--base-ou", "OU=Linux,DC=corp,DC=example,DC=com",
		"--prefix", "corp-",
		"--keytab", "/etc/adrealm/corp.keytab",
		"--principal", "svc-join@CORP.EXAMPLE.COM",
	}
	if err := Update(args); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	want := config.Default()
	want.JoinTimeout = 90 * time.Second
	want.Domains = map[string]models.DomainConfig{
		"corp.example.com": {
			BaseOU:             "OU=Linux,DC=corp,DC=example,DC=com",
			ComputerNamePrefix: "corp-",
			KeytabPath:         "/etc/adrealm/corp.keytab",
			Principal:          "svc-join@CORP.EXAMPLE.COM",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateKeepsUnchangedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	if err := Update([]string{"--config", path, "--domain", "corp.example.com", "--prefix", "corp-", "--principal", "svc"}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if err := Update([]string{"--config", path, "--domain", "corp.example.com", "--principal", "svc2"}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if err := Update([]string{"--config", path, "--domain", "lab.example.com", "--principal", "lab"}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if err := Update([]string{"--config", path, "--domain", "lab.example.com", "--remove"}); err != nil {
		t.Fatalf("Update(--remove) = %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	want := map[string]models.DomainConfig{"corp.example.com": {ComputerNamePrefix: "corp-", Principal: "svc2"}}
	if diff := cmp.Diff(want, got.Domains); diff != "" {
		t.Errorf("domains mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	tests := []struct {
		desc string
		args []string
	}{
		{"domain field without domain", []string{"--config", path, "--prefix", "x-"}},
		{"unknown flag", []string{"--config", path, "--bogus"}},
	}
	for _, tt := range tests {
		if err := Update(tt.args); err == nil {
			t.Errorf("%s: Update() = nil, want error", tt.desc)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("settings file written after failed updates, stat err = %v", err)
	}
}

func writeKeytab(t *testing.T, dir string) string {
	t.Helper()
	kt := keytab.New()
	if err := kt.AddEntry("svc-join", "CORP.EXAMPLE.COM", "secret", time.Now(), 1, etypeID.AES256_CTS_HMAC_SHA1_96); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	data, err := kt.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(dir, "corp.keytab")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	conf := config.Default()
	conf.Domains = map[string]models.DomainConfig{
		"corp.example.com": {KeytabPath: writeKeytab(t, dir), Principal: "svc-join@CORP.EXAMPLE.COM"},
		"lab.example.com":  {KeytabPath: filepath.Join(dir, "missing.keytab")},
		"dev.example.com":  {KeytabPath: writeKeytab(t, t.TempDir()), Principal: "other@CORP.EXAMPLE.COM", Generator: "nonexistent"},
	}
	var out bytes.Buffer
	err := check(conf, &out)
	if err == nil {
		t.Fatal("check() = nil, want error")
	}
	got := out.String()
	for _, want := range []string{
		"corp.example.com: OK",
		"lab.example.com: FAIL: keytab not found",
		"principal not configured",
		"dev.example.com: FAIL: principal not found in keytab",
		"unknown computer name generator",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("check() output %q does not contain %q", got, want)
		}
	}
	ci, di, li := strings.Index(got, "corp.example.com"), strings.Index(got, "dev.example.com"), strings.Index(got, "lab.example.com")
	if !(ci < di && di < li) {
		t.Errorf("check() output %q is not sorted by domain", got)
	}
}

func TestRunGenerators(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"generators"}, &out); err != nil {
		t.Fatalf("run(generators) = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "prefix" {
		t.Errorf("run(generators) = %q, want prefix", got)
	}
}

func TestRunDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	if err := config.Save(config.Default(), path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), []string{"delete", "--config", path, "--realm", "CORP", "--hostname", "web01.corp"}, &out); err != nil {
		t.Fatalf("run(delete) = %v", err)
	}
	if !strings.Contains(out.String(), `"status": "unsupported"`) {
		t.Errorf("run(delete) output = %q, want unsupported status", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	if err := config.Save(config.Default(), path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), []string{"frobnicate", "--config", path}, &out); err == nil {
		t.Error("run(frobnicate) = nil, want error")
	}
	if err := run(context.Background(), nil, &out); err == nil {
		t.Error("run() = nil, want error")
	}
}

func TestServeShutdown(t *testing.T) {
	conf := config.Default()
	conf.Listen = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, conf) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() = %v, want nil", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve() did not return after cancellation")
	}
}

func TestRunRemoteDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm_ad.yml")
	if err := config.Save(config.Default(), path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	conf, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	b, err := newBackend(conf, nil)
	if err != nil {
		t.Fatalf("newBackend() = %v", err)
	}
	ts := httptest.NewServer(endpoints.NewRouter(b, nil, nil))
	defer ts.Close()

	var out bytes.Buffer
	if err := run(context.Background(), []string{"delete", "--server", ts.URL, "--realm", "CORP", "--hostname", "web01.corp"}, &out); err != nil {
		t.Fatalf("run(delete --server) = %v", err)
	}
	if !strings.Contains(out.String(), "Delete host manually in AD.") {
		t.Errorf("run(delete --server) output = %q", out.String())
	}
}
