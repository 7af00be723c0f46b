/*
Copyright 2018 Google Inc.

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

package server

import (
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		desc string
		in   StatusCode
		want int
	}{
		{"success", StatusSuccess, http.StatusOK},
		{"unreadable request", StatusRequestUnreadable, http.StatusBadRequest},
		{"untrusted client", StatusUntrustedClient, http.StatusForbidden},
		{"marshal error", StatusJSONMarshalError, http.StatusInternalServerError},
		{"host without domain", StatusRequestHostNoDomain, http.StatusBadRequest},
		{"missing domain configuration", StatusConfigurationError, http.StatusBadRequest},
		{"credential error", StatusCredentialError, http.StatusInternalServerError},
		{"join tool failure", StatusJoinToolError, http.StatusBadGateway},
		{"join tool timeout", StatusJoinToolTimeout, http.StatusBadGateway},
		{"internal", StatusInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.in.HTTPStatus(); got != tt.want {
			t.Errorf("%s: HTTPStatus(%d) = %d, want %d", tt.desc, tt.in, got, tt.want)
		}
	}
}
