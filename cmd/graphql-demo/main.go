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

// graphql-demo serves the greeting schema over HTTP at /graphql.
package main

import (
	"flag"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/graphqlkit/graphql-http/graphqlhttp"
	"github.com/graphqlkit/graphql-http/internal/hello"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()
	defer glog.Flush()

	schema, err := hello.NewSchema()
	if err != nil {
		glog.Fatalf("build schema: %v", err)
	}
	handler := graphqlhttp.NewHandler(schema)

	router := gin.Default()
	router.GET("/graphql", gin.WrapH(handler))
	router.HEAD("/graphql", gin.WrapH(handler))
	router.POST("/graphql", gin.WrapH(handler))

	glog.Infof("serving GraphQL on %s/graphql", *addr)
	if err := router.Run(*addr); err != nil {
		glog.Fatalf("serve: %v", err)
	}
}
