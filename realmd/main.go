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

/*
Realmd serves the realm API and joins hosts to Active Directory realms.

Usage:

	realmd serve [--config path]
	realmd join --realm R --hostname FQDN [--rebuild] [--server URL]
	realmd delete --realm R --hostname FQDN [--server URL]
	realmd configure --domain D [--base-ou OU] [--prefix P] [--keytab K] [--principal P]
	realmd check
	realmd generators
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/adrealm/appclient"
	"github.com/google/adrealm/config"
	"github.com/google/deck"
	"github.com/google/deck/backends/logger"
	"github.com/spf13/pflag"

	_ "github.com/google/adrealm/generators/prefix"
	_ "github.com/google/adrealm/realm/activedirectory"
)

const usage = `usage: realmd <command> [flags]

commands:
  serve       serve the realm API
  join        create the computer account for one host
  delete      delete the computer account for one host
  configure   add or update settings
  check       verify the credential settings of every domain
  generators  list the computer name generators
`

func main() {
	deck.Add(logger.Init(os.Stderr, 0))
	defer deck.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		deck.Error(err)
		stop()
		deck.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(out, usage)
		return fmt.Errorf("no command given")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "configure":
		return Update(args)
	case "generators":
		return listGenerators(out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	path := fs.String("config", config.DefaultPath, "Path to the settings file.")
	realmName := fs.String("realm", "", "The realm to operate on.")
	hostname := fs.String("hostname", "", "The fully qualified hostname.")
	rebuild := fs.Bool("rebuild", false, "Mark the request as a host rebuild.")
	srv := fs.String("server", "", "Send join and delete requests to the realm API at this URL.")
	clientCert := fs.String("client_cert", "", "Client certificate presented to --server.")
	clientKey := fs.String("client_key", "", "Key of --client_cert.")
	serverCA := fs.String("server_ca", "", "Roots used to verify --server.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *srv != "" && (cmd == "join" || cmd == "delete") {
		hc, err := appclient.TLSClient(*clientCert, *clientKey, *serverCA)
		if err != nil {
			return err
		}
		return remote(ctx, appclient.New(*srv, hc), cmd, *realmName, *hostname, *rebuild, out)
	}

	conf, err := config.Load(*path)
	if err != nil {
		return err
	}

	switch cmd {
	case "serve":
		return serve(ctx, conf)
	case "join":
		return join(ctx, conf, *realmName, *hostname, *rebuild, out)
	case "delete":
		return remove(ctx, conf, *realmName, *hostname, out)
	case "check":
		return check(conf, out)
	}
	fmt.Fprint(out, usage)
	return fmt.Errorf("unknown command %q", cmd)
}
