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

package graphqlhttp

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"golang.org/x/text/encoding/ianaindex"
)

// Request is a single GraphQL operation decoded from an HTTP request.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}

	// Files holds the file parts of a multipart/form-data request,
	// keyed by form field name. They are opaque to the decoder; the
	// handler exposes them to resolvers through the execution context.
	Files map[string][]*multipart.FileHeader
}

// maxFormMemory bounds how much of a multipart form is held in memory
// before spilling to disk, matching net/http's default.
const maxFormMemory = 32 << 20

// Parse decodes a GraphQL HTTP request. If an error is returned,
// StatusCode will return the proper HTTP status code to use and Kind
// its decode failure classification.
//
// Request methods may be GET, HEAD, or POST. GET and HEAD take all
// parameters from the URL and may only carry query operations. POST
// bodies are decoded according to Content-Type and Content-Encoding;
// URL parameters override body-derived values field by field.
func Parse(r *http.Request) (Request, error) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		request := Request{}
		if err := mergeURLParams(&request, r.URL.Query()); err != nil {
			return Request{}, err
		}
		if request.Query == "" {
			return Request{}, missingQueryError()
		}
		if err := checkQueryOperation(request.Query, request.OperationName); err != nil {
			return Request{}, err
		}
		return request, nil
	case http.MethodPost:
		request, err := parseBody(r)
		if err != nil {
			return Request{}, err
		}
		if err := mergeURLParams(&request, r.URL.Query()); err != nil {
			return Request{}, err
		}
		if request.Query == "" {
			return Request{}, missingQueryError()
		}
		return request, nil
	default:
		return Request{}, &httpError{
			msg:   fmt.Sprintf("Method %s not allowed.", r.Method),
			code:  http.StatusMethodNotAllowed,
			allow: "GET, HEAD, POST",
		}
	}
}

// parseBody decodes the POST body according to its declared content
// type, after undoing any content encoding. An unrecognized or missing
// content type is not an error: the request may still be completed by
// URL parameters.
func parseBody(r *http.Request) (Request, error) {
	body, err := readBody(r)
	if err != nil {
		return Request{}, err
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		// Absent or malformed content type: defer to the URL merge.
		return Request{}, nil
	}
	switch {
	case mediaType == "application/json":
		return parseJSONBody(body, params["charset"])
	case mediaType == "application/x-www-form-urlencoded":
		return parseFormBody(body, params["charset"])
	case mediaType == "application/graphql" || strings.HasPrefix(mediaType, "text/"):
		// The whole body is the query text.
		text, err := recodeCharset(body, params["charset"])
		if err != nil {
			return Request{}, err
		}
		return Request{Query: string(text)}, nil
	case strings.HasPrefix(mediaType, "multipart/"):
		return parseMultipartBody(body, params["boundary"])
	default:
		return Request{}, nil
	}
}

// readBody reads the full request body, undoing gzip or deflate
// compression when Content-Encoding declares it.
func readBody(r *http.Request) ([]byte, error) {
	var in io.Reader = r.Body
	switch enc := r.Header.Get("Content-Encoding"); enc {
	case "", "identity":
	case "gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, badEncodingError("gzip", err)
		}
		defer zr.Close()
		in = zr
	case "deflate":
		zr, err := zlib.NewReader(r.Body)
		if err != nil {
			return nil, badEncodingError("deflate", err)
		}
		defer zr.Close()
		in = zr
	default:
		return nil, &httpError{
			msg:  fmt.Sprintf("Unsupported content-encoding %q.", enc),
			code: http.StatusUnsupportedMediaType,
		}
	}
	body, err := io.ReadAll(in)
	if err != nil {
		if r.Header.Get("Content-Encoding") != "" {
			return nil, badEncodingError(r.Header.Get("Content-Encoding"), err)
		}
		return nil, &httpError{
			msg:   "Error reading request body",
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	return body, nil
}

func badEncodingError(enc string, cause error) error {
	return &httpError{
		kind:  KindBadEncoding,
		msg:   fmt.Sprintf("Invalid %s body", enc),
		code:  http.StatusBadRequest,
		cause: cause,
	}
}

func missingQueryError() error {
	return &httpError{
		kind: KindMissingQuery,
		msg:  "Must provide query string.",
		code: http.StatusBadRequest,
	}
}

// parseJSONBody decodes an application/json body. An empty body yields
// an empty request so that URL parameters may still complete it.
func parseJSONBody(body []byte, charset string) (Request, error) {
	body, err := recodeCharset(body, charset)
	if err != nil {
		return Request{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Request{}, nil
	}
	var fields struct {
		Query         string          `json:"query"`
		OperationName string          `json:"operationName"`
		Variables     json.RawMessage `json:"variables"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return Request{}, &httpError{
			kind:  KindBadJSON,
			msg:   "POST body sent invalid JSON.",
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	request := Request{
		Query:         fields.Query,
		OperationName: fields.OperationName,
	}
	if raw := bytes.TrimSpace(fields.Variables); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] == '"' {
			// Double-encoded variables: a JSON string holding a JSON
			// object. Unwrap before parsing.
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Request{}, badVariablesError(err)
			}
			raw = []byte(s)
		}
		if err := json.Unmarshal(raw, &request.Variables); err != nil {
			return Request{}, badVariablesError(err)
		}
	}
	return request, nil
}

// parseFormBody decodes an application/x-www-form-urlencoded body.
// Variables travel as a JSON string on this path.
func parseFormBody(body []byte, charset string) (Request, error) {
	body, err := recodeCharset(body, charset)
	if err != nil {
		return Request{}, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return Request{}, &httpError{
			msg:   "Invalid form body",
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	request := Request{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if v := values.Get("variables"); v != "" {
		request.Variables, err = parseVariablesString(v)
		if err != nil {
			return Request{}, err
		}
	}
	return request, nil
}

// parseMultipartBody extracts the request fields from a
// multipart/form-data body. Field extraction is delegated to
// mime/multipart; file parts are carried through untouched.
func parseMultipartBody(body []byte, boundary string) (Request, error) {
	if boundary == "" {
		return Request{}, &httpError{
			msg:  "Missing multipart boundary.",
			code: http.StatusBadRequest,
		}
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxFormMemory)
	if err != nil {
		return Request{}, &httpError{
			msg:   "Invalid multipart body",
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	request := Request{
		Query:         formValue(form, "query"),
		OperationName: formValue(form, "operationName"),
	}
	if len(form.File) > 0 {
		request.Files = form.File
	}
	if v := formValue(form, "variables"); v != "" {
		request.Variables, err = parseVariablesString(v)
		if err != nil {
			return Request{}, err
		}
	}
	return request, nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// mergeURLParams overlays URL query parameters onto a body-derived
// request. URL values take precedence per field, not as a whole-object
// replacement.
func mergeURLParams(request *Request, values url.Values) error {
	if v := values.Get("query"); v != "" {
		request.Query = v
	}
	if v := values.Get("operationName"); v != "" {
		request.OperationName = v
	}
	if v := values.Get("variables"); v != "" {
		variables, err := parseVariablesString(v)
		if err != nil {
			return err
		}
		request.Variables = variables
	}
	return nil
}

func parseVariablesString(s string) (map[string]interface{}, error) {
	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(s), &variables); err != nil {
		return nil, badVariablesError(err)
	}
	return variables, nil
}

func badVariablesError(cause error) error {
	return &httpError{
		kind:  KindBadVariablesJSON,
		msg:   "Variables are invalid JSON.",
		code:  http.StatusBadRequest,
		cause: cause,
	}
}

// recodeCharset transcodes body text to UTF-8 per the charset parameter
// of the Content-Type header. UTF-8 is the default and passes through
// unmodified.
func recodeCharset(body []byte, charset string) ([]byte, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return body, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, &httpError{
			msg:  fmt.Sprintf("Unsupported charset %q.", charset),
			code: http.StatusUnsupportedMediaType,
		}
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, &httpError{
			kind:  KindBadEncoding,
			msg:   fmt.Sprintf("Invalid %s body", charset),
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	return decoded, nil
}

// checkQueryOperation rejects GET requests whose requested operation is
// a mutation or subscription. Unparseable documents pass through so the
// executor reports the syntax error.
func checkQueryOperation(query, operationName string) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return nil
	}
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			operations = append(operations, op)
		}
	}
	var requested *ast.OperationDefinition
	if operationName == "" {
		if len(operations) == 1 {
			requested = operations[0]
		}
	} else {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == operationName {
				requested = op
				break
			}
		}
	}
	if requested != nil && requested.Operation != ast.OperationTypeQuery {
		return &httpError{
			msg:   fmt.Sprintf("Can only perform a %s operation from a POST request.", requested.Operation),
			code:  http.StatusMethodNotAllowed,
			allow: "POST",
		}
	}
	return nil
}

type filesContextKey struct{}

// ContextWithFiles returns a context carrying the file parts of a
// multipart request, for resolvers to retrieve with RequestFiles.
func ContextWithFiles(ctx context.Context, files map[string][]*multipart.FileHeader) context.Context {
	return context.WithValue(ctx, filesContextKey{}, files)
}

// RequestFiles returns the file parts attached to the request being
// executed, or nil when the request did not carry any.
func RequestFiles(ctx context.Context) map[string][]*multipart.FileHeader {
	files, _ := ctx.Value(filesContextKey{}).(map[string][]*multipart.FileHeader)
	return files
}
