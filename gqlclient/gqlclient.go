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

// Package gqlclient is a minimal GraphQL HTTP client used for
// cross-service test scenarios against external endpoints. It speaks
// the same application/json POST contract the graphqlhttp handler
// accepts and authenticates with a bearer token.
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Client queries a single GraphQL endpoint.
type Client struct {
	url string
	hc  *http.Client
}

// New returns a client for the endpoint at url. If token is non-empty,
// requests carry it as a bearer token.
func New(ctx context.Context, url, token string) *Client {
	hc := http.DefaultClient
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		))
	}
	return &Client{url: url, hc: hc}
}

// LoadToken reads a bearer token from a local credentials file. The
// token is the first line of the file; surrounding whitespace is
// ignored.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "load credentials")
	}
	token, _, _ := strings.Cut(string(b), "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.Errorf("load credentials: %s is empty", path)
	}
	return token, nil
}

type queryRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type queryError struct {
	Message string `json:"message"`
}

// Query executes a GraphQL query against the endpoint and unmarshals
// the response's data into out. Errors reported by the remote endpoint
// are returned as a single wrapped error.
func (c *Client) Query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	bodyJSON, err := json.Marshal(&queryRequest{Query: query, Variables: variables})
	if err != nil {
		return errors.Wrap(err, "graphql query")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyJSON))
	if err != nil {
		return errors.Wrap(err, "graphql query")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "graphql query")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "graphql query")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("graphql query: %s: got body %q", resp.Status, b)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []queryError    `json:"errors"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return errors.Wrapf(err, "graphql query: decoding body %q", b)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return errors.Errorf("graphql query: remote errors: %s", strings.Join(msgs, "; "))
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(envelope.Data, out), "graphql query")
}
