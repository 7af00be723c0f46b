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

// Package appclient provides a TLS enabled HTTP client for the realm API.
package appclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/adrealm/models"
)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is returned when the realm API answers with a failure.
type APIError struct {
	HTTPStatus int
	Response   models.Response
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("realm API returned %d: %s (code %d)", e.HTTPStatus, e.Response.Message, e.Response.ErrorCode)
	if e.Response.Output != "" {
		msg += "\n" + e.Response.Output
	}
	return msg
}

// TLSClient returns a TLS enabled http client. certFile and keyFile name the
// client certificate presented to the server; caFile, when set, replaces the
// system roots used to verify the server.
func TLSClient(certFile, keyFile, caFile string) (*http.Client, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %v", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("error reading %q: %v", caFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %q", caFile)
		}
		tlsCfg.RootCAs = pool
	}
	return &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}, nil
}

// Client calls the realm API at Server.
type Client struct {
	Server string
	c      Doer
}

// New returns a Client for server using c. A nil c uses http.DefaultClient.
func New(server string, c Doer) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{Server: strings.TrimSuffix(server, "/"), c: c}
}

// Create asks the server to create the computer account for fqdn.
func (cl *Client) Create(ctx context.Context, realm, fqdn string, rebuild bool) (*models.Response, error) {
	form := url.Values{
		"hostname": {fqdn},
		"rebuild":  {strconv.FormatBool(rebuild)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.Server+"/realm/"+url.PathEscape(realm), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error composing post request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// Delete asks the server to delete the computer account for hostname.
func (cl *Client) Delete(ctx context.Context, realm, hostname string) (*models.Response, error) {
	addr := cl.Server + "/realm/" + url.PathEscape(realm) + "/" + url.PathEscape(hostname)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("error composing delete request: %v", err)
	}
	return cl.do(req)
}

func (cl *Client) do(req *http.Request) (*models.Response, error) {
	res, err := cl.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing %s request: %v", req.Method, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}
	resp := &models.Response{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("json.Unmarshal returned: %v (status %d, body: %s)", err, res.StatusCode, body)
	}
	if res.StatusCode != http.StatusOK || resp.Status == models.ResponseStatusFailed {
		return resp, &APIError{HTTPStatus: res.StatusCode, Response: *resp}
	}
	return resp, nil
}
