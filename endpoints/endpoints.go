/*
Copyright 2019 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package endpoints contains the request handlers of the realm API.
// Individual handlers are separated into their own files for readability.
package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/adrealm/generators"
	"github.com/google/adrealm/models"
	"github.com/google/adrealm/realm"
	"github.com/google/adrealm/server"
	"github.com/google/adrealm/shared/certs"
	"github.com/google/deck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the realm API for backend. Metrics are served from
// gatherer when it is non-nil. When trusted is non-empty, realm requests
// must come from a client certificate naming one of the trusted hosts.
func NewRouter(backend realm.Backend, gatherer prometheus.Gatherer, trusted []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/realm/{realm}", func(r chi.Router) {
		r.Use(trustedHosts(trusted))
		r.Post("/", CreateHandler{Backend: backend}.ServeHTTP)
		r.Delete("/{hostname}", DeleteHandler{Backend: backend}.ServeHTTP)
	})
	r.Get("/generators", listGenerators)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// trustedHosts rejects requests whose client certificate names no trusted host.
func trustedHosts(trusted []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := certs.VerifyPeer(r.TLS, trusted); err != nil {
				writeResponse(w, models.Response{
					Status:    models.ResponseStatusFailed,
					Message:   err.Error(),
					ErrorCode: server.StatusUntrustedClient,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func listGenerators(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(generators.List()); err != nil {
		deck.Errorf("encoding generator list: %v", err)
	}
}

// writeResponse sends resp with the HTTP status derived from its error code.
func writeResponse(w http.ResponseWriter, resp models.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		deck.Errorf("json.Marshal(%v) failed: %v", resp, err)
		http.Error(w, err.Error(), server.StatusJSONMarshalError.HTTPStatus())
		return
	}
	if resp.ErrorCode != server.StatusSuccess {
		deck.Warningf("could not process request: %s", data)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.ErrorCode.HTTPStatus())
	w.Write(data)
}
