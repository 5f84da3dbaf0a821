// Copyright 2026 The graphql-http Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package graphqlhttp serves GraphQL over HTTP as described in
// https://graphql.org/learn/serving-over-http/.
//
// The handler accepts GET requests with parameters in the URL and POST
// requests with application/json, application/x-www-form-urlencoded,
// application/graphql, or multipart/form-data bodies, optionally
// compressed with gzip or deflate. Execution is delegated to
// github.com/graphql-go/graphql.
package graphqlhttp

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/graphql-go/graphql"
	"go.opencensus.io/trace"
	"golang.org/x/xerrors"
)

// Handler serves GraphQL HTTP requests by executing them against its
// schema. The schema is immutable after construction, so a single
// Handler is safe for concurrent use.
type Handler struct {
	schema graphql.Schema
}

// NewHandler returns a new handler that executes requests against the
// given schema.
func NewHandler(schema graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

// ServeHTTP decodes a GraphQL request, executes it, and writes the
// result. Decode failures produce an HTTP error status with a JSON
// errors body; failures during execution (syntax, validation, or
// resolver errors) still produce HTTP 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "graphqlhttp.ServeHTTP")
	defer span.End()

	_, parseSpan := trace.StartSpan(ctx, "graphqlhttp.Parse")
	request, err := Parse(r)
	parseSpan.End()
	if err != nil {
		if allow := allowedMethods(err); allow != "" {
			w.Header().Set("Allow", allow)
		}
		WriteError(w, err)
		return
	}

	execCtx, execSpan := trace.StartSpan(ctx, "graphqlhttp.Execute")
	if len(request.Files) > 0 {
		execCtx = ContextWithFiles(execCtx, request.Files)
	}
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  request.Query,
		VariableValues: request.Variables,
		OperationName:  request.OperationName,
		Context:        execCtx,
	})
	execSpan.End()
	WriteResponse(w, r, result)
}

// httpError is an error during request decoding. It maps onto an HTTP
// status code and, for the decode failures the protocol names, a Kind.
type httpError struct {
	kind  ErrorKind
	msg   string
	code  int
	allow string
	cause error
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// ErrorKind classifies a decode failure.
type ErrorKind int

// Decode failure kinds.
const (
	KindUnknown ErrorKind = iota
	// KindBadEncoding indicates the body could not be decompressed or
	// re-encoded from its declared charset.
	KindBadEncoding
	// KindBadJSON indicates a malformed request body.
	KindBadJSON
	// KindBadVariablesJSON indicates a variables parameter that arrived
	// as a string but is not valid JSON.
	KindBadVariablesJSON
	// KindMissingQuery indicates no query text was resolvable from the
	// body or the URL.
	KindMissingQuery
)

// Kind returns the decode failure classification of an error, or
// KindUnknown for errors that did not come from Parse.
func Kind(err error) ErrorKind {
	var e *httpError
	if !xerrors.As(err, &e) {
		return KindUnknown
	}
	return e.kind
}

// StatusCode returns the HTTP status code an error indicates.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *httpError
	if !xerrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	return e.code
}

func allowedMethods(err error) string {
	var e *httpError
	if !xerrors.As(err, &e) {
		return ""
	}
	return e.allow
}

// WriteResponse writes a GraphQL execution result as an HTTP response.
// The body is gzip-compressed when the request advertises gzip support
// in Accept-Encoding.
func WriteResponse(w http.ResponseWriter, r *http.Request, result *graphql.Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		WriteError(w, &httpError{
			msg:  "GraphQL marshal error",
			code: http.StatusInternalServerError,
		})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		gzw.Write(payload)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Write(payload)
}

// WriteError writes a decode failure in the same shape execution errors
// use: a JSON body with a single-element errors array.
func WriteError(w http.ResponseWriter, err error) {
	payload, marshalErr := json.Marshal(map[string]interface{}{
		"errors": []map[string]interface{}{
			{"message": err.Error()},
		},
	})
	if marshalErr != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(StatusCode(err))
	w.Write(payload)
}
