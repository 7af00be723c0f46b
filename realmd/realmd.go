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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/adrealm/appclient"
	"github.com/google/adrealm/config"
	"github.com/google/adrealm/endpoints"
	"github.com/google/adrealm/generators"
	"github.com/google/adrealm/metric"
	"github.com/google/adrealm/metric/tracker"
	"github.com/google/adrealm/models"
	"github.com/google/adrealm/realm"
	"github.com/google/adrealm/realm/activedirectory"
	"github.com/google/adrealm/shared/certs"
	"github.com/google/deck"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func initMetrics(reg prometheus.Registerer) (*tracker.Tracker, error) {
	metrics := tracker.New(reg)

	// Counters
	for _, name := range []string{
		activedirectory.MetricJoinAttempt,
		activedirectory.MetricJoinFail,
		activedirectory.MetricJoinSuccess,
		activedirectory.MetricDeleteRequest,
	} {
		m, err := metric.NewCounter(name, fmt.Sprintf("Count of %s events.", name), reg)
		if err != nil {
			return nil, err
		}
		metrics.Add(m)
	}

	// Gauges
	for _, name := range []string{
		activedirectory.MetricInFlight,
	} {
		m, err := metric.NewGauge(name, "Joins currently running.", reg)
		if err != nil {
			return nil, err
		}
		metrics.Add(m)
	}
	return metrics, nil
}

func newBackend(conf *config.Settings, reg prometheus.Registerer) (realm.Backend, error) {
	metrics, err := initMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	b, err := realm.New(conf.Backend, conf, metrics)
	if err != nil {
		return nil, err
	}
	deck.Infof("Application configured.\n\n"+
		"Backend: %v\n"+
		"Join utility: %v\n"+
		"Kinit: %v\n"+
		"Join timeout: %v\n"+
		"Domains: %d",
		conf.Backend, conf.JoinUtility, conf.Kinit, conf.JoinTimeout, len(conf.Domains))
	return b, nil
}

// serve runs the realm API until ctx is done.
func serve(ctx context.Context, conf *config.Settings) error {
	reg := prometheus.NewRegistry()
	b, err := newBackend(conf, reg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           endpoints.NewRouter(b, reg, conf.TrustedHosts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if conf.TLSCert != "" {
		if srv.TLSConfig, err = certs.ServerConfig(conf.TLSCert, conf.TLSKey, conf.ClientCA); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		if srv.TLSConfig != nil {
			deck.Infof("Serving realm API on https://%s (client CA %q, %d trusted hosts)", conf.Listen, conf.ClientCA, len(conf.TrustedHosts))
			errc <- srv.ListenAndServeTLS("", "")
			return
		}
		deck.Warningf("Serving realm API on http://%s without TLS", conf.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving realm API: %w", err)
	case <-ctx.Done():
	}
	deck.Info("Shutting down realm API")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printJSON(out io.Writer, resp models.Response) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// join creates the computer account for hostname and prints the response.
func join(ctx context.Context, conf *config.Settings, name, hostname string, rebuild bool, out io.Writer) error {
	b, err := newBackend(conf, nil)
	if err != nil {
		return err
	}
	o, err := b.Create(ctx, models.RealmJoinRequest{Realm: name, FQDN: hostname, Rebuild: rebuild})
	if err != nil {
		return err
	}
	return printJSON(out, models.Response{Status: models.ResponseStatusCreated, Message: o.Message})
}

// remove asks the backend to delete hostname and prints the response.
func remove(ctx context.Context, conf *config.Settings, name, hostname string, out io.Writer) error {
	b, err := newBackend(conf, nil)
	if err != nil {
		return err
	}
	o, err := b.Delete(ctx, name, hostname)
	if err != nil {
		return err
	}
	status := models.ResponseStatusCreated
	if o.Kind == realm.Unsupported {
		status = models.ResponseStatusUnsupported
	}
	return printJSON(out, models.Response{Status: status, Message: o.Message})
}

// remote runs a join or delete through the realm API.
func remote(ctx context.Context, c *appclient.Client, cmd, name, hostname string, rebuild bool, out io.Writer) error {
	var resp *models.Response
	var err error
	if cmd == "join" {
		resp, err = c.Create(ctx, name, hostname, rebuild)
	} else {
		resp, err = c.Delete(ctx, name, hostname)
	}
	if resp != nil {
		if perr := printJSON(out, *resp); perr != nil {
			return perr
		}
	}
	return err
}

func listGenerators(out io.Writer) error {
	for _, g := range generators.List() {
		if _, err := fmt.Fprintln(out, g); err != nil {
			return err
		}
	}
	return nil
}
