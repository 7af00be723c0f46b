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

// Package server contains shared data and structures used across adrealm packages
package server

import "net/http"

// StatusCode represents an adrealm status code, and is used to communicate
// reasons for request rejections and join failures.
type StatusCode int

// Internal status codes. We use static values so that codes which end up in
// logs and metrics do not shift when a new const is added.
const (
	StatusSuccess           StatusCode = 0
	StatusRequestUnreadable StatusCode = 101
	StatusUntrustedClient   StatusCode = 102
	StatusJSONMarshalError  StatusCode = 104

	// Request validator codes
	StatusRequestRealmBlank    StatusCode = 201
	StatusRequestHostBlank     StatusCode = 202
	StatusRequestHostNoDomain  StatusCode = 203
	StatusRequestRealmMismatch StatusCode = 204

	// Configuration codes
	StatusConfigurationError StatusCode = 301
	StatusGeneratorError     StatusCode = 302

	// Credential codes
	StatusCredentialError StatusCode = 401
	StatusKinitError      StatusCode = 402

	// Join utility codes
	StatusJoinToolError   StatusCode = 501
	StatusJoinToolTimeout StatusCode = 502

	// Internal
	StatusInternalError StatusCode = 901
)

// HTTPStatus maps a StatusCode to the HTTP status returned to API callers.
func (c StatusCode) HTTPStatus() int {
	switch {
	case c == StatusSuccess:
		return http.StatusOK
	case c == StatusUntrustedClient:
		return http.StatusForbidden
	case c == StatusJSONMarshalError, c >= StatusInternalError:
		return http.StatusInternalServerError
	case c < 400:
		return http.StatusBadRequest
	case c < 500:
		return http.StatusInternalServerError
	case c < 600:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
