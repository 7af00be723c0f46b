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

// Package validators provides basic validation for realm join requests and
// exposes an interface for additional validators.
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/adrealm/models"
	"github.com/google/adrealm/server"
)

// Validator performs metadata checking for requests.
type Validator interface {
	// Check returns a status code and an error if the check failed.
	Check(context.Context, *models.RealmJoinRequest) (server.StatusCode, error)
}

// Error carries the status code of a failed check.
type Error struct {
	Code server.StatusCode
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the status reported for the failed check.
func (e *Error) StatusCode() server.StatusCode { return e.Code }

var validate = validator.New()

// Basic implements Validator and performs basic checking of a request.
type Basic struct {
}

// Check returns StatusSuccess(0) if a request has data in required fields and
// the hostname is a fully qualified name with a non-empty host label.
func (d Basic) Check(ctx context.Context, req *models.RealmJoinRequest) (server.StatusCode, error) {
	if err := validate.Struct(req); err != nil {
		var fe validator.ValidationErrors
		if !errors.As(err, &fe) || len(fe) == 0 {
			return server.StatusInternalError, fmt.Errorf("validating request: %w", err)
		}
		switch f := fe[0]; {
		case f.Field() == "Realm":
			return server.StatusRequestRealmBlank, errors.New("realm is blank")
		case f.Tag() == "required":
			return server.StatusRequestHostBlank, errors.New("hostname is blank")
		default:
			return server.StatusRequestHostNoDomain, fmt.Errorf("hostname %q is not fully qualified", req.FQDN)
		}
	}
	switch {
	case strings.TrimSpace(req.Realm) == "":
		return server.StatusRequestRealmBlank, errors.New("realm is blank")
	case req.HostLabel() == "":
		return server.StatusRequestHostBlank, fmt.Errorf("hostname %q has an empty host label", req.FQDN)
	case req.Domain() == "":
		return server.StatusRequestHostNoDomain, fmt.Errorf("hostname %q is not fully qualified", req.FQDN)
	}
	return server.StatusSuccess, nil
}

// RealmMatch rejects requests whose realm differs from Realm. It guards
// requests that name the realm twice, e.g. in the URL and the body.
type RealmMatch struct {
	Realm string
}

// Check compares realms case-insensitively.
func (m RealmMatch) Check(ctx context.Context, req *models.RealmJoinRequest) (server.StatusCode, error) {
	if !strings.EqualFold(m.Realm, req.Realm) {
		return server.StatusRequestRealmMismatch, fmt.Errorf("realm %q does not match %q", req.Realm, m.Realm)
	}
	return server.StatusSuccess, nil
}

// New returns a slice containing all basic validators.
func New() []Validator {
	return []Validator{Basic{}}
}

// Run runs each validator in order and returns the first failure as an
// *Error.
func Run(ctx context.Context, req *models.RealmJoinRequest, vs ...Validator) error {
	for _, v := range vs {
		if code, err := v.Check(ctx, req); err != nil {
			return &Error{Code: code, Err: err}
		}
	}
	return nil
}
