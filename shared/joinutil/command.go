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

// Package joinutil drives the external directory join utility (msktutil).
//
// Commands are built as argument vectors and started without a shell, so
// realm names, hostnames and OUs reach the utility verbatim no matter which
// characters they contain. Command.String renders a quoted form for logs.
package joinutil

import "strings"

// Fixed values passed to the join utility.
const (
	Description  = "Foreman managed client"
	ServiceClass = "host"
)

// Command is an ordered argument vector for the join utility.
type Command struct {
	Args []string
}

// Build assembles the precreate command for a computer account. An empty
// baseOU leaves --base out entirely rather than passing --base '', so
// msktutil uses its default container.
func Build(realm, fqdn, computerName, baseOU string) Command {
	args := []string{
		"--precreate",
		"--realm", realm,
		"--hostname", fqdn,
		"--description", Description,
		"--upn", ServiceClass + "/" + fqdn,
		"--service", ServiceClass,
		"--computer-name", computerName,
	}
	if baseOU != "" {
		args = append(args, "--base", baseOU)
	}
	return Command{Args: args}
}

// String renders the arguments as a single shell-quoted line.
func (c Command) String() string {
	quoted := make([]string, len(c.Args))
	for i, arg := range c.Args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Quote returns s quoted for a POSIX shell. Strings made only of safe
// characters are returned unchanged.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`!#&|;(){}[]<>?*~=%,") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
