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

package couchtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

type database struct {
	name        string
	docs        map[string]*document
	seq         uint64
	partitioned bool
}

func (db *database) nextSeq() uint64 {
	db.seq++
	return db.seq
}

// formatSeq renders a sequence the way CouchDB 2.x and later do: an update
// number followed by an opaque suffix.
func formatSeq(n uint64) string {
	return fmt.Sprintf("%d-fake", n)
}

// parseSeq reads the update number of a sequence produced by formatSeq, or
// a bare integer.
func parseSeq(s string) (uint64, bool) {
	num, _, _ := strings.Cut(s, "-")
	n, err := strconv.ParseUint(num, 10, 64)
	return n, err == nil
}

// sortedDocs returns the database's documents ordered by ID.
func (db *database) sortedDocs() []*document {
	docs := make([]*document, 0, len(db.docs))
	for _, doc := range db.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].id < docs[j].id })
	return docs
}

// lookupDB returns the named database, writing a 404 when it is missing.
// The caller must hold s.mu.
func (s *FakeServer) lookupDB(w http.ResponseWriter, r *http.Request) (*database, bool) {
	db, ok := s.dbs[dbParam(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
	}
	return db, ok
}

func (s *FakeServer) headDB(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, ok := s.dbs[dbParam(r)]
	s.mu.Unlock()
	w.Header().Set("Content-Type", typeJSON)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *FakeServer) getDB(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	var docCount, delCount, active uint64
	for _, doc := range db.docs {
		if doc.local() {
			continue
		}
		if doc.deleted {
			delCount++
			continue
		}
		docCount++
		active += doc.size()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"db_name":         db.name,
		"doc_count":       docCount,
		"doc_del_count":   delCount,
		"update_seq":      formatSeq(db.seq),
		"purge_seq":       formatSeq(0),
		"compact_running": false,
		"sizes": map[string]uint64{
			"active":   active,
			"external": active,
			"file":     active + 4096,
		},
		"props":               map[string]interface{}{"partitioned": db.partitioned},
		"instance_start_time": "0",
	})
}

func (s *FakeServer) putDB(w http.ResponseWriter, r *http.Request) {
	name := dbParam(r)
	if !validDBName.MatchString(name) {
		writeError(w, http.StatusBadRequest, "illegal_database_name",
			fmt.Sprintf("Name: '%s'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.", name))
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		if n, err := strconv.Atoi(q); err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "q must be a positive integer")
			return
		}
	}
	partitioned, ok := boolParam(w, r, "partitioned", false)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dbs[name]; exists {
		writeError(w, http.StatusPreconditionFailed, "file_exists", "The database could not be created, the file already exists.")
		return
	}
	s.dbs[name] = &database{
		name:        name,
		docs:        map[string]*document{},
		partitioned: partitioned,
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *FakeServer) deleteDB(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	delete(s.dbs, db.name)
	for key := range s.views {
		if key.db == db.name {
			delete(s.views, key)
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// boolParam reads a boolean query parameter, writing a 400 for a value
// other than "true" or "false".
func boolParam(w http.ResponseWriter, r *http.Request, name string, def bool) (value, ok bool) {
	v := r.URL.Query().Get(name)
	switch v {
	case "":
		return def, true
	case "true":
		return true, true
	case "false":
		return false, true
	}
	writeError(w, http.StatusBadRequest, "query_parse_error", fmt.Sprintf("Invalid boolean parameter: %q", v))
	return false, false
}

// uintParam reads a non-negative integer query parameter.
func uintParam(w http.ResponseWriter, r *http.Request, name string) (value uint64, set, ok bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false, true
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query_parse_error", fmt.Sprintf("Invalid value for unsigned integer: %q", v))
		return 0, false, false
	}
	return n, true, true
}

type change struct {
	Seq     string                     `json:"seq"`
	ID      string                     `json:"id"`
	Changes []map[string]string        `json:"changes"`
	Deleted bool                       `json:"deleted,omitempty"`
	Doc     map[string]json.RawMessage `json:"doc,omitempty"`
}

func (s *FakeServer) changes(w http.ResponseWriter, r *http.Request) {
	descending, ok := boolParam(w, r, "descending", false)
	if !ok {
		return
	}
	includeDocs, ok := boolParam(w, r, "include_docs", false)
	if !ok {
		return
	}
	limit, hasLimit, ok := uintParam(w, r, "limit")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	var since uint64
	switch v := r.URL.Query().Get("since"); v {
	case "", "0":
	case "now":
		since = db.seq
	default:
		if since, ok = parseSeq(v); !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "Malformed sequence supplied in 'since' parameter.")
			return
		}
	}

	var docs []*document
	for _, doc := range db.docs {
		if !doc.local() && (descending || doc.seq > since) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if descending {
			return docs[i].seq > docs[j].seq
		}
		return docs[i].seq < docs[j].seq
	})
	pending := 0
	if hasLimit && uint64(len(docs)) > limit {
		pending = len(docs) - int(limit)
		docs = docs[:limit]
	}
	results := make([]change, 0, len(docs))
	lastSeq := since
	if descending {
		lastSeq = 0
	}
	for _, doc := range docs {
		c := change{
			Seq:     formatSeq(doc.seq),
			ID:      doc.id,
			Changes: []map[string]string{{"rev": doc.rev}},
			Deleted: doc.deleted,
		}
		if includeDocs {
			c.Doc = doc.full()
		}
		results = append(results, c)
		lastSeq = doc.seq
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":  results,
		"last_seq": formatSeq(lastSeq),
		"pending":  pending,
	})
}
