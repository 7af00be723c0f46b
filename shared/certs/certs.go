/*
Copyright 2016 Google LLC

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

// Package certs provides TLS support for the realm API: the server
// configuration and client certificate checks against trusted hosts.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoClientCert is returned when a request carries no verified client certificate.
	ErrNoClientCert = errors.New("no verified client certificate")
	// ErrUntrustedHost is returned when the client certificate names no trusted host.
	ErrUntrustedHost = errors.New("client is not a trusted host")
)

// ServerConfig returns the TLS configuration of the realm API. When clientCA
// is set, clients must present a certificate issued by one of the roots in
// that PEM bundle.
func ServerConfig(certFile, keyFile, clientCA string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading key pair %s, %s: %v", certFile, keyFile, err)
	}
	conf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if clientCA == "" {
		return conf, nil
	}

	roots, err := os.ReadFile(clientCA)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %v", clientCA, err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(roots); !ok {
		return nil, fmt.Errorf("no certificates found in root bundle at %q", clientCA)
	}
	conf.ClientCAs = pool
	conf.ClientAuth = tls.RequireAndVerifyClientCert
	return conf, nil
}

// VerifyPeer checks that the verified client certificate of a connection
// names one of the trusted hosts. An empty trusted list accepts every client.
func VerifyPeer(state *tls.ConnectionState, trusted []string) error {
	if len(trusted) == 0 {
		return nil
	}
	if state == nil || len(state.PeerCertificates) < 1 {
		return ErrNoClientCert
	}

	cert := state.PeerCertificates[0]
	for _, host := range trusted {
		if err := cert.VerifyHostname(host); err == nil {
			return nil
		}
		if strings.EqualFold(cert.Subject.CommonName, host) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUntrustedHost, cert.Subject.CommonName)
}
