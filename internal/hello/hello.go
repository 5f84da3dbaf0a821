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

// Package hello defines the fixed greeting schema used by the demo
// server and the HTTP handler tests. The schema is built once and
// read-only afterward; its resolvers are pure.
package hello

import (
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/graphqlkit/graphql-http/graphqlhttp"
)

// NewSchema builds the greeting schema:
//
//	type QueryRoot {
//	  test(who: String): String
//	  uploadedFiles: [String]
//	}
//
//	type MutationRoot {
//	  writeTest: QueryRoot
//	}
//
// test greets who, defaulting to "World". uploadedFiles lists the file
// parts of a multipart request as "field:filename" pairs. writeTest
// returns the query root so selections on its result resolve the same
// greeting fields.
func NewSchema() (graphql.Schema, error) {
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "QueryRoot",
		Fields: graphql.Fields{
			"test": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"who": &graphql.ArgumentConfig{
						Type: graphql.String,
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					who, _ := p.Args["who"].(string)
					if who == "" {
						who = "World"
					}
					return "Hello " + who, nil
				},
			},
			"uploadedFiles": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					files := graphqlhttp.RequestFiles(p.Context)
					if len(files) == 0 {
						return nil, nil
					}
					var names []string
					for field, headers := range files {
						for _, h := range headers {
							names = append(names, field+":"+h.Filename)
						}
					}
					sort.Strings(names)
					return names, nil
				},
			},
		},
	})
	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MutationRoot",
		Fields: graphql.Fields{
			"writeTest": &graphql.Field{
				Type: queryType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return map[string]interface{}{}, nil
				},
			},
		},
	})
	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
