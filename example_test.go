// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/constraint"
)

func Example() {
	r := dispatch.MustNew()

	_ = r.GET("/users/:id", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, "user %s", dispatch.ParamFromContext(req.Context(), "id"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	fmt.Println(w.Body.String())
	// Output: user 42
}

func ExampleWithVersion() {
	r := dispatch.MustNew()

	_ = r.GET("/api/users", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "stable")
	}))
	_ = r.GET("/api/users", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "v2 preview")
	}), dispatch.WithVersion("^2.0.0"))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Accept-Version", "2.1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	fmt.Println(w.Body.String())
	// Output: v2 preview
}

func ExampleWithHost() {
	r := dispatch.MustNew()

	_ = r.GET("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "main site")
	}))
	_ = r.GET("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "admin panel")
	}), dispatch.WithHost("admin.example.com"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "admin.example.com"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	fmt.Println(w.Body.String())
	// Output: admin panel
}

func ExampleWithStrategies() {
	tenant, _ := constraint.New(constraint.Spec{
		Name: "tenant",
		Storage: func() constraint.Store {
			return exactStore{handlers: map[string]any{}}
		},
		DeriveConstraint: func(req *http.Request, _ any) (string, bool) {
			v := req.Header.Get("X-Tenant")
			return v, v != ""
		},
	})

	r := dispatch.MustNew(dispatch.WithStrategies(tenant))
	_ = r.GET("/data", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "acme data")
	}), dispatch.WithConstraints(map[string]string{"tenant": "acme"}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("X-Tenant", "acme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	fmt.Println(w.Body.String())
	// Output: acme data
}

// exactStore maps constraint values to handlers one to one.
type exactStore struct {
	handlers map[string]any
}

func (s exactStore) Set(value string, handler any) error {
	s.handlers[value] = handler
	return nil
}

func (s exactStore) Get(derived string) any {
	return s.handlers[derived]
}
