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

package joinutil

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	fake "github.com/google/adrealm/shared/joinutil/testing"
	"github.com/google/go-cmp/cmp"
)

func TestBuild(t *testing.T) {
	got := Build("CORP.EXAMPLE.COM", "web01.corp.example.com", "corp-web01", "OU=Servers,DC=corp,DC=example,DC=com")
	want := []string{
		"--precreate",
		"--realm", "CORP.EXAMPLE.COM",
		"--hostname", "web01.corp.example.com",
		"--description", "Foreman managed client",
		"--upn", "host/web01.corp.example.com",
		"--service", "host",
		"--computer-name", "corp-web01",
		"--base", "OU=Servers,DC=corp,DC=example,DC=com",
	}
	if diff := cmp.Diff(want, got.Args); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutBase(t *testing.T) {
	got := Build("CORP", "web01.corp", "web01", "")
	for _, a := range got.Args {
		if a == "--base" {
			t.Fatalf("Build() = %v, want no --base for an empty OU", got.Args)
		}
	}
}

func TestHostileValuesReachUtilityVerbatim(t *testing.T) {
	tests := []struct {
		desc   string
		realm  string
		baseOU string
	}{
		{"semicolon", "CORP; rm -rf /", "OU=a;b"},
		{"quotes", `CORP"'`, `OU="x" 'y'`},
		{"substitution", "$(id)", "`reboot`"},
		{"newline", "CORP\n--delete", "OU=x\nDC=y"},
		{"spaces", "MY REALM", "OU=Linux Servers,DC=corp"},
	}
	for _, tt := range tests {
		nid := fake.NewInactiveDirectory()
		e := NewExecutor("/usr/sbin/msktutil", time.Minute, nid)
		res := e.Execute(context.Background(), Build(tt.realm, "web01.corp.example.com", "web01", tt.baseOU), nil)
		if res.ExitCode != 0 {
			t.Errorf("%s: Execute() exit code = %d (%s), want 0", tt.desc, res.ExitCode, res.Output)
		}
		calls := nid.Calls()
		if len(calls) != 1 {
			t.Fatalf("%s: utility ran %d times, want 1", tt.desc, len(calls))
		}
		if got, _ := calls[0].Flag("--realm"); got != tt.realm {
			t.Errorf("%s: utility received realm %q, want %q", tt.desc, got, tt.realm)
		}
		if got, _ := calls[0].Flag("--base"); got != tt.baseOU {
			t.Errorf("%s: utility received base %q, want %q", tt.desc, got, tt.baseOU)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CORP.EXAMPLE.COM", "CORP.EXAMPLE.COM"},
		{"", "''"},
		{"Foreman managed client", "'Foreman managed client'"},
		{"a;b", "'a;b'"},
		{"it's", `'it'\''s'`},
		{"$(id)", "'$(id)'"},
		{"OU=x,DC=y", "'OU=x,DC=y'"},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCommandString(t *testing.T) {
	c := Build("CORP;X", "web01.corp", "web01", "")
	got := c.String()
	if !strings.Contains(got, "--realm 'CORP;X'") {
		t.Errorf("String() = %s, want quoted realm", got)
	}
	if !strings.Contains(got, "--description 'Foreman managed client'") {
		t.Errorf("String() = %s, want quoted description", got)
	}
}

func TestExecute(t *testing.T) {
	nid := fake.NewInactiveDirectory()
	nid.Output = "precreated\n"
	e := NewExecutor("", 0, nid)
	env := []string{"KRB5CCNAME=FILE:/tmp/krb5cc_test"}
	res := e.Execute(context.Background(), Build("CORP", "web01.corp", "web01", ""), env)
	if diff := cmp.Diff(Result{ExitCode: 0, Output: "precreated\n"}, res); diff != "" {
		t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
	}
	calls := nid.Calls()
	if len(calls) != 1 {
		t.Fatalf("utility ran %d times, want 1", len(calls))
	}
	if calls[0].Path != DefaultPath {
		t.Errorf("utility path = %s, want %s", calls[0].Path, DefaultPath)
	}
	if diff := cmp.Diff(env, calls[0].Env); diff != "" {
		t.Errorf("utility env mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteFailure(t *testing.T) {
	nid := &fake.InactiveDirectory{Computers: map[string]bool{}, ExitCode: 1, Output: "Error: ldap_sasl_interactive_bind_s failed\n"}
	e := NewExecutor("msktutil", 0, nid)
	res := e.Execute(context.Background(), Build("CORP", "web01.corp", "web01", ""), nil)
	if diff := cmp.Diff(Result{ExitCode: 1, Output: "Error: ldap_sasl_interactive_bind_s failed\n"}, res); diff != "" {
		t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteTimeout(t *testing.T) {
	nid := &fake.InactiveDirectory{Computers: map[string]bool{}, Hang: true}
	e := NewExecutor("msktutil", 10*time.Millisecond, nid)
	res := e.Execute(context.Background(), Build("CORP", "web01.corp", "web01", ""), nil)
	if !res.TimedOut || res.ExitCode != -1 {
		t.Errorf("Execute() = %+v, want a timed out result", res)
	}
	if _, err := Interpret("web01.corp", res); err == nil {
		t.Error("Interpret() of a timed out run = nil, want error")
	}
}

type startFailure struct{}

func (startFailure) Run(ctx context.Context, path string, args, env []string) ([]byte, int, error) {
	return nil, -1, errors.New("exec: \"msktutil\": executable file not found in $PATH")
}

func TestExecuteStartFailure(t *testing.T) {
	e := NewExecutor("msktutil", 0, startFailure{})
	res := e.Execute(context.Background(), Build("CORP", "web01.corp", "web01", ""), nil)
	if res.ExitCode != -1 || !strings.Contains(res.Output, "executable file not found") {
		t.Errorf("Execute() = %+v, want exit code -1 and the start error", res)
	}
}

func TestExecuteOrphanedOutput(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh on this host")
	}
	defer func(d time.Duration) { WaitDelay = d }(WaitDelay)
	WaitDelay = 200 * time.Millisecond

	e := NewExecutor("/bin/sh", 100*time.Millisecond, ExecRunner{})
	start := time.Now()
	// The sleeping child keeps the output pipe open after the shell is killed.
	res := e.Execute(context.Background(), Command{Args: []string{"-c", "sleep 3; echo done"}}, nil)
	if !res.TimedOut {
		t.Errorf("Execute() = %+v, want TimedOut", res)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Execute() returned after %v, want well under the child's 3s sleep", elapsed)
	}
}

func TestInterpret(t *testing.T) {
	msg, err := Interpret("web01.corp.example.com", Result{ExitCode: 0})
	if err != nil {
		t.Fatalf("Interpret() returned unexpected error: %v", err)
	}
	if want := "computer account for host web01.corp.example.com added to active directory"; msg != want {
		t.Errorf("Interpret() = %q, want %q", msg, want)
	}

	out := "Error: Another computer account (CN=corp-web01) has the principal host/web01\n"
	_, err = Interpret("web01.corp.example.com", Result{ExitCode: 1, Output: out})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Interpret() = %v, want *ExitError", err)
	}
	if ee.ExitCode != 1 || ee.Output != out {
		t.Errorf("Interpret() = %+v, want exit code 1 and verbatim output", ee)
	}
	if !strings.Contains(err.Error(), "1") || !strings.Contains(err.Error(), out) {
		t.Errorf("Interpret() message %q lacks exit code or output", err)
	}
}
