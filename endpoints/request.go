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

package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/adrealm/models"
	"github.com/google/adrealm/realm"
	"github.com/google/adrealm/server"
	"github.com/google/adrealm/shared/joinutil"
	"github.com/google/adrealm/validators"
	"github.com/google/deck"
)

// maxBody bounds the size of a request body.
const maxBody = 64 << 10

// CreateHandler implements http.Handler for computer account creation.
type CreateHandler struct {
	Backend realm.Backend
}

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.process(r))
}

func (h CreateHandler) process(r *http.Request) models.Response {
	name := chi.URLParam(r, "realm")
	req, code, err := unmarshalRequest(r)
	if err != nil {
		return models.Response{Status: models.ResponseStatusFailed, Message: err.Error(), ErrorCode: code}
	}
	// A realm given in the body must agree with the URL.
	if req.Realm != "" {
		if err := validators.Run(r.Context(), &req, validators.RealmMatch{Realm: name}); err != nil {
			return errorResponse(err)
		}
	}
	req.Realm = name

	deck.Infof("create request for %s in realm %s (rebuild=%t)", req.FQDN, req.Realm, req.Rebuild)
	out, err := h.Backend.Create(r.Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return outcomeResponse(out)
}

// DeleteHandler implements http.Handler for computer account removal.
type DeleteHandler struct {
	Backend realm.Backend
}

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, host := chi.URLParam(r, "realm"), chi.URLParam(r, "hostname")
	deck.Infof("delete request for %s in realm %s", host, name)
	out, err := h.Backend.Delete(r.Context(), name, host)
	if err != nil {
		writeResponse(w, errorResponse(err))
		return
	}
	writeResponse(w, outcomeResponse(out))
}

// jsonRequest is the JSON form of a join request. Foreman sends rebuild as
// either a boolean or a string.
type jsonRequest struct {
	Realm    string   `json:"realm"`
	Hostname string   `json:"hostname"`
	Rebuild  flexBool `json:"rebuild"`
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*b = false
	case bool:
		*b = flexBool(v)
	case string:
		p, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("rebuild %q is not a boolean", v)
		}
		*b = flexBool(p)
	default:
		return fmt.Errorf("rebuild %s is not a boolean", data)
	}
	return nil
}

// unmarshalRequest reads a join request from a JSON or form encoded body.
func unmarshalRequest(r *http.Request) (models.RealmJoinRequest, server.StatusCode, error) {
	var req models.RealmJoinRequest
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return req, server.StatusRequestUnreadable, fmt.Errorf("reading request body: %v", err)
		}
		var in jsonRequest
		if err := json.Unmarshal(body, &in); err != nil {
			return req, server.StatusRequestUnreadable, fmt.Errorf("json.Unmarshal: %v", err)
		}
		req.Realm, req.FQDN, req.Rebuild = in.Realm, in.Hostname, bool(in.Rebuild)
		return req, server.StatusSuccess, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, server.StatusRequestUnreadable, fmt.Errorf("parsing form: %v", err)
	}
	req.FQDN = r.PostForm.Get("hostname")
	req.Realm = r.PostForm.Get("realm")
	if v := r.PostForm.Get("rebuild"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, server.StatusRequestUnreadable, fmt.Errorf("rebuild %q is not a boolean", v)
		}
		req.Rebuild = b
	}
	return req, server.StatusSuccess, nil
}

func outcomeResponse(out realm.Outcome) models.Response {
	if out.Kind == realm.Unsupported {
		return models.Response{Status: models.ResponseStatusUnsupported, Message: out.Message}
	}
	return models.Response{Status: models.ResponseStatusCreated, Message: out.Message}
}

func errorResponse(err error) models.Response {
	resp := models.Response{
		Status:    models.ResponseStatusFailed,
		Message:   err.Error(),
		ErrorCode: realm.Status(err),
	}
	var ee *joinutil.ExitError
	if errors.As(err, &ee) {
		code := ee.ExitCode
		resp.ExitCode = &code
		resp.Output = ee.Output
	}
	return resp
}
