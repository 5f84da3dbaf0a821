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

package graphqlhttp_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/graphqlkit/graphql-http/graphqlhttp"
	"github.com/graphqlkit/graphql-http/internal/hello"
)

func newHandler(t *testing.T) *graphqlhttp.Handler {
	t.Helper()
	schema, err := hello.NewSchema()
	if err != nil {
		t.Fatal(err)
	}
	return graphqlhttp.NewHandler(schema)
}

func TestServeHTTP(t *testing.T) {
	tests := []struct {
		name string

		method          string
		urlQuery        url.Values
		contentType     string
		contentEncoding string
		body            string

		wantStatus int
		wantBody   string
	}{
		{
			name:        "POST/HelloWorld",
			method:      http.MethodPost,
			contentType: "application/json",
			body:        `{"query":"{test}"}`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"data":{"test":"Hello World"}}`,
		},
		{
			name:        "POST/HelloDolly",
			method:      http.MethodPost,
			contentType: "application/json",
			body:        `{"query":"query helloWho($who: String){ test(who: $who) }","variables":{"who":"Dolly"}}`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"data":{"test":"Hello Dolly"}}`,
		},
		{
			name:        "POST/EmptyBodyAnyContentType",
			method:      http.MethodPost,
			contentType: "*/*",
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"errors":[{"message":"Must provide query string."}]}`,
		},
		{
			name:            "POST/GzipBody",
			method:          http.MethodPost,
			contentType:     "application/json",
			contentEncoding: "gzip",
			body:            `{"query":"{ test(who: \"World\") }"}`,
			wantStatus:      http.StatusOK,
			wantBody:        `{"data":{"test":"Hello World"}}`,
		},
		{
			name:        "POST/Mutation",
			method:      http.MethodPost,
			contentType: "application/json",
			body:        `{"query":"mutation TestMutation { writeTest { test } }"}`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"data":{"writeTest":{"test":"Hello World"}}}`,
		},
		{
			name:       "GET/HelloWorld",
			method:     http.MethodGet,
			urlQuery:   url.Values{"query": {"{test}"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"test":"Hello World"}}`,
		},
		{
			name:   "GET/Variables",
			method: http.MethodGet,
			urlQuery: url.Values{
				"query":     {"query helloWho($who: String){ test(who: $who) }"},
				"variables": {`{"who":"Dolly"}`},
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"test":"Hello Dolly"}}`,
		},
		{
			name:        "POST/URLVariablesOverrideBody",
			method:      http.MethodPost,
			contentType: "application/json",
			urlQuery: url.Values{
				"variables": {`{"who":"Dolly"}`},
			},
			body:       `{"query":"query helloWho($who: String){ test(who: $who) }","variables":{"who":"Body"}}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"test":"Hello Dolly"}}`,
		},
		{
			name:        "POST/GraphQLContentType",
			method:      http.MethodPost,
			contentType: "application/graphql",
			body:        `{ test(who: "Dolly") }`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"data":{"test":"Hello Dolly"}}`,
		},
		{
			name:        "POST/Form",
			method:      http.MethodPost,
			contentType: "application/x-www-form-urlencoded",
			body:        "query=" + url.QueryEscape(`{ test(who: "Dolly") }`),
			wantStatus:  http.StatusOK,
			wantBody:    `{"data":{"test":"Hello Dolly"}}`,
		},
	}
	h := newHandler(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := []byte(test.body)
			if test.contentEncoding == "gzip" {
				buf := new(bytes.Buffer)
				zw := gzip.NewWriter(buf)
				if _, err := zw.Write(body); err != nil {
					t.Fatal(err)
				}
				if err := zw.Close(); err != nil {
					t.Fatal(err)
				}
				body = buf.Bytes()
			}
			target := "/graphql"
			if len(test.urlQuery) > 0 {
				target += "?" + test.urlQuery.Encode()
			}
			req := httptest.NewRequest(test.method, target, bytes.NewReader(body))
			if test.contentType != "" {
				req.Header.Set("Content-Type", test.contentType)
			}
			if test.contentEncoding != "" {
				req.Header.Set("Content-Encoding", test.contentEncoding)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != test.wantStatus {
				t.Errorf("status = %d; want %d (body: %s)", rec.Code, test.wantStatus, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q; want application/json", ct)
			}
			var got, want interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("response body %q is not JSON: %v", rec.Body, err)
			}
			if err := json.Unmarshal([]byte(test.wantBody), &want); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("response body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServeHTTPMissingQueryExactBody(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Content-Type", "*/*")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
	if got, want := rec.Body.String(), `{"errors":[{"message":"Must provide query string."}]}`; got != want {
		t.Errorf("body = %s; want %s", got, want)
	}
}

func TestServeHTTPIdempotent(t *testing.T) {
	h := newHandler(t)
	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{test}"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d; want %d", i, rec.Code, http.StatusOK)
		}
		if i == 0 {
			first = rec.Body.String()
		} else if rec.Body.String() != first {
			t.Errorf("request %d: body = %s; want %s", i, rec.Body, first)
		}
	}
}

func TestServeHTTPSyntaxErrorStillOK(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{test"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body %q is not JSON: %v", rec.Body, err)
	}
	if len(resp.Errors) == 0 {
		t.Error("errors is empty; want at least one syntax error")
	}
}

func TestServeHTTPMethodNotAllowed(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodDelete, "/graphql", strings.NewReader(`{"query":"{test}"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD, POST" {
		t.Errorf("Allow = %q; want %q", got, "GET, HEAD, POST")
	}
}

func TestServeHTTPGetMutation(t *testing.T) {
	h := newHandler(t)
	target := "/graphql?" + url.Values{
		"query": {"mutation TestMutation { writeTest { test } }"},
	}.Encode()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "POST" {
		t.Errorf("Allow = %q; want %q", got, "POST")
	}
}

func TestServeHTTPMultipartUpload(t *testing.T) {
	buf := new(bytes.Buffer)
	form := multipart.NewWriter(buf)
	if err := form.WriteField("query", "{ uploadedFiles }"); err != nil {
		t.Fatal(err)
	}
	file, err := form.CreateFormFile("attachment", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(file, "uploaded contents"); err != nil {
		t.Fatal(err)
	}
	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	h := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d (body: %s)", rec.Code, http.StatusOK, rec.Body)
	}
	var got interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response body %q is not JSON: %v", rec.Body, err)
	}
	want := map[string]interface{}{
		"data": map[string]interface{}{
			"uploadedFiles": []interface{}{"attachment:notes.txt"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response body (-want +got):\n%s", diff)
	}
}

func TestServeHTTPGzipResponse(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{test}"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q; want %q", got, "gzip")
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(payload), `{"data":{"test":"Hello World"}}`; got != want {
		t.Errorf("decompressed body = %s; want %s", got, want)
	}
}
