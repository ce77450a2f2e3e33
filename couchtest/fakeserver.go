// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package couchtest provides CouchDB servers for tests: an in-memory fake
// that speaks a subset of the CouchDB HTTP API, and helpers to reach a real
// server.
package couchtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FakeVersion is the CouchDB version reported by FakeServer.
const FakeVersion = "3.3.2"

const (
	typeJSON          = "application/json"
	sessionCookieName = "AuthSession"
)

var validDBName = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

// FakeServer is an in-memory CouchDB. It runs in "admin party" mode: every
// request is allowed, but users added with AddUser can start cookie
// sessions and are reported by /_session.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	uuid     string
	dbs      map[string]*database
	views    map[viewKey]*view
	users    map[string]user
	sessions map[string]string
}

type user struct {
	password string
	roles    []string
}

// NewFakeServer starts a FakeServer. Call Close when done.
func NewFakeServer() *FakeServer {
	s := &FakeServer{
		uuid:     newUUID(),
		dbs:      map[string]*database{},
		views:    map[viewKey]*view{},
		users:    map[string]user{},
		sessions: map[string]string{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// DSN returns the server's URL with a trailing slash.
func (s *FakeServer) DSN() string {
	return s.URL + "/"
}

// AddUser registers a user that may log in with a cookie session.
func (s *FakeServer) AddUser(name, password string, roles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roles == nil {
		roles = []string{}
	}
	s.users[name] = user{password: password, roles: roles}
}

func (s *FakeServer) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.serverInfo)
	r.Get("/_up", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/_all_dbs", s.allDBs)
	r.Get("/_session", s.getSession)
	r.Post("/_session", s.postSession)
	r.Route("/{db}", func(r chi.Router) {
		r.Head("/", s.headDB)
		r.Get("/", s.getDB)
		r.Put("/", s.putDB)
		r.Delete("/", s.deleteDB)
		r.Post("/", s.postDoc)
		r.Get("/_changes", s.changes)
		r.Get("/_design/{doc}/_view/{view}", s.queryView)
		r.HandleFunc("/_design/{doc}", s.document("_design/"))
		r.HandleFunc("/_local/{doc}", s.document("_local/"))
		r.HandleFunc("/{doc}", s.document(""))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "missing")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET,HEAD,PUT,DELETE allowed")
	})
	return r
}

func newUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", typeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errName, reason string) {
	writeJSON(w, status, map[string]string{"error": errName, "reason": reason})
}

// dbParam returns the unescaped database name of the request.
func dbParam(r *http.Request) string {
	name, err := url.PathUnescape(chi.URLParam(r, "db"))
	if err != nil {
		return chi.URLParam(r, "db")
	}
	return name
}

// docParam returns the unescaped document ID segment of the request.
// Document IDs are query-escaped in paths, so "+" is a space.
func docParam(r *http.Request, name string) string {
	id, err := url.QueryUnescape(chi.URLParam(r, name))
	if err != nil {
		return chi.URLParam(r, name)
	}
	return id
}

func (s *FakeServer) serverInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"couchdb":  "Welcome",
		"version":  FakeVersion,
		"uuid":     s.uuid,
		"features": []string{"access-ready", "partitioned"},
		"vendor":   map[string]string{"name": "The Apache Software Foundation"},
	})
}

func (s *FakeServer) allDBs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func (s *FakeServer) postSession(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Request body is not valid JSON")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[creds.Name]
	if !ok || u.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Name or password is incorrect.")
		return
	}
	token := newUUID()
	s.sessions[token] = creds.Name
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"name":  creds.Name,
		"roles": u.roles,
	})
}

func (s *FakeServer) getSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userCtx := map[string]interface{}{"name": nil, "roles": []string{}}
	info := map[string]interface{}{"authentication_handlers": []string{"cookie", "default"}}
	if name, password, ok := r.BasicAuth(); ok {
		u, found := s.users[name]
		if !found || u.password != password {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Name or password is incorrect.")
			return
		}
		userCtx["name"], userCtx["roles"] = name, u.roles
		info["authenticated"] = "default"
	} else if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if name, ok := s.sessions[cookie.Value]; ok {
			userCtx["name"], userCtx["roles"] = name, s.users[name].roles
			info["authenticated"] = "cookie"
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"userCtx": userCtx,
		"info":    info,
	})
}
