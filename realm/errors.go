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

package realm

import (
	"errors"

	"github.com/google/adrealm/generators"
	"github.com/google/adrealm/server"
	"github.com/google/adrealm/shared/joinutil"
	"github.com/google/adrealm/shared/kerberos"
	perrors "github.com/pkg/errors"
)

// Error kinds returned by backends. Every backend error wraps exactly one.
var (
	// ErrInvalidRequest indicates a malformed request.
	ErrInvalidRequest = perrors.New("invalid request")
	// ErrConfiguration indicates that the request cannot be served with the
	// current configuration.
	ErrConfiguration = perrors.New("configuration error")
	// ErrCredential indicates that no credential could be acquired.
	ErrCredential = perrors.New("credential error")
	// ErrExternalTool indicates that the join utility did not succeed.
	ErrExternalTool = perrors.New("join utility error")
	// ErrUnknownBackend is returned by New for unregistered backends.
	ErrUnknownBackend = perrors.New("unknown realm backend")
)

// Status classifies err as a server.StatusCode.
func Status(err error) server.StatusCode {
	var ee *joinutil.ExitError
	var coded interface{ StatusCode() server.StatusCode }
	switch {
	case err == nil:
		return server.StatusSuccess
	case errors.As(err, &coded):
		return coded.StatusCode()
	case errors.Is(err, ErrInvalidRequest):
		return server.StatusRequestHostNoDomain
	case errors.Is(err, ErrConfiguration) && errors.Is(err, generators.ErrUnknown):
		return server.StatusGeneratorError
	case errors.Is(err, ErrConfiguration):
		return server.StatusConfigurationError
	case errors.Is(err, ErrCredential) && errors.Is(err, kerberos.ErrKinit):
		return server.StatusKinitError
	case errors.Is(err, ErrCredential):
		return server.StatusCredentialError
	case errors.As(err, &ee) && ee.TimedOut:
		return server.StatusJoinToolTimeout
	case errors.Is(err, ErrExternalTool):
		return server.StatusJoinToolError
	}
	return server.StatusInternalError
}
