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
	"strings"

	"github.com/pkg/errors"
)

// Built-in reduce functions understood by RegisterView.
const (
	ReduceSum   = "_sum"
	ReduceCount = "_count"
)

// MapFunc is a view's map function. doc includes the _id and _rev fields.
type MapFunc func(doc map[string]interface{}, emit func(key, value interface{}))

type viewKey struct {
	db, ddoc, view string
}

type view struct {
	mapFn  MapFunc
	reduce string
}

// RegisterView defines view in design document ddoc of db. reduce is "",
// ReduceSum or ReduceCount. The view is dropped when db is deleted.
func (s *FakeServer) RegisterView(db, ddoc, name string, mapFn MapFunc, reduce string) {
	switch reduce {
	case "", ReduceSum, ReduceCount:
	default:
		panic(fmt.Sprintf("couchtest: unsupported reduce function %q", reduce))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := viewKey{db: db, ddoc: strings.TrimPrefix(ddoc, "_design/"), view: name}
	s.views[key] = &view{mapFn: mapFn, reduce: reduce}
}

type emitted struct {
	id    string
	key   interface{}
	raw   json.RawMessage
	value json.RawMessage
	doc   json.RawMessage
}

type viewRow struct {
	ID    string          `json:"id"`
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
	Doc   json.RawMessage `json:"doc,omitempty"`
}

type reducedRow struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// viewQuery holds the parsed query parameters of a view request.
type viewQuery struct {
	reduce, reduceSet bool
	group             bool
	includeDocs       bool
	descending        bool
	inclusiveEnd      bool
	limit             uint64
	hasLimit          bool
	skip              uint64
	keys              map[string]interface{}
}

func parseViewQuery(w http.ResponseWriter, r *http.Request) (*viewQuery, bool) {
	q := &viewQuery{keys: map[string]interface{}{}}
	var ok bool
	q.reduceSet = r.URL.Query().Get("reduce") != ""
	if q.reduce, ok = boolParam(w, r, "reduce", true); !ok {
		return nil, false
	}
	if q.group, ok = boolParam(w, r, "group", false); !ok {
		return nil, false
	}
	if q.includeDocs, ok = boolParam(w, r, "include_docs", false); !ok {
		return nil, false
	}
	if q.descending, ok = boolParam(w, r, "descending", false); !ok {
		return nil, false
	}
	if q.inclusiveEnd, ok = boolParam(w, r, "inclusive_end", true); !ok {
		return nil, false
	}
	if q.limit, q.hasLimit, ok = uintParam(w, r, "limit"); !ok {
		return nil, false
	}
	if q.skip, _, ok = uintParam(w, r, "skip"); !ok {
		return nil, false
	}
	for _, name := range []string{"key", "startkey", "endkey"} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		var key interface{}
		if err := json.Unmarshal([]byte(v), &key); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON for %s", name))
			return nil, false
		}
		q.keys[name] = key
	}
	return q, true
}

// inRange reports whether key falls within the query's key bounds.
func (q *viewQuery) inRange(key interface{}) bool {
	if k, ok := q.keys["key"]; ok && collate(key, k) != 0 {
		return false
	}
	dir := 1
	if q.descending {
		dir = -1
	}
	if start, ok := q.keys["startkey"]; ok && dir*collate(key, start) < 0 {
		return false
	}
	if end, ok := q.keys["endkey"]; ok {
		c := dir * collate(key, end)
		if c > 0 || (c == 0 && !q.inclusiveEnd) {
			return false
		}
	}
	return true
}

func (s *FakeServer) queryView(w http.ResponseWriter, r *http.Request) {
	q, ok := parseViewQuery(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	key := viewKey{db: db.name, ddoc: docParam(r, "doc"), view: docParam(r, "view")}
	v, ok := s.views[key]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "missing_named_view")
		return
	}
	reduce := v.reduce != "" && q.reduce
	switch {
	case v.reduce == "" && q.reduceSet && q.reduce:
		writeError(w, http.StatusBadRequest, "query_parse_error", "Reduce is invalid for map-only views.")
		return
	case reduce && q.includeDocs:
		writeError(w, http.StatusBadRequest, "query_parse_error", "`include_docs` is invalid for reduce")
		return
	case q.group && !reduce:
		writeError(w, http.StatusBadRequest, "query_parse_error", "Invalid use of grouping on a map view.")
		return
	}

	all := mapDocs(db, v.mapFn)
	sort.SliceStable(all, func(i, j int) bool {
		c := collate(all[i].key, all[j].key)
		if c == 0 {
			c = strings.Compare(all[i].id, all[j].id)
		}
		if q.descending {
			return c > 0
		}
		return c < 0
	})
	var rows []emitted
	offset := -1
	for i, row := range all {
		if q.inRange(row.key) {
			if offset < 0 {
				offset = i
			}
			rows = append(rows, row)
		}
	}
	if offset < 0 {
		offset = len(all)
	}

	if reduce {
		reduced, err := reduceRows(rows, v.reduce, q.group)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "builtin_reduce_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rows": page(reduced, q)})
		return
	}
	out := make([]viewRow, 0, len(rows))
	for _, row := range page(rows, q) {
		vr := viewRow{ID: row.id, Key: row.raw, Value: row.value}
		if q.includeDocs {
			vr.Doc = row.doc
		}
		out = append(out, vr)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_rows": len(all),
		"offset":     offset + int(min64(q.skip, uint64(len(rows)))),
		"rows":       out,
	})
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// page applies skip and limit.
func page[T any](rows []T, q *viewQuery) []T {
	skip := min64(q.skip, uint64(len(rows)))
	rows = rows[skip:]
	if q.hasLimit && uint64(len(rows)) > q.limit {
		rows = rows[:q.limit]
	}
	return rows
}

// mapDocs runs mapFn over the live, non-design documents of db.
func mapDocs(db *database, mapFn MapFunc) []emitted {
	var rows []emitted
	for _, doc := range db.sortedDocs() {
		if doc.deleted || doc.local() || doc.design() {
			continue
		}
		full := mustMarshal(doc.full())
		var decoded map[string]interface{}
		if err := json.Unmarshal(full, &decoded); err != nil {
			panic(err)
		}
		mapFn(decoded, func(key, value interface{}) {
			raw := mustMarshal(key)
			var normalized interface{}
			_ = json.Unmarshal(raw, &normalized)
			rows = append(rows, emitted{
				id:    doc.id,
				key:   normalized,
				raw:   raw,
				value: mustMarshal(value),
				doc:   full,
			})
		})
	}
	return rows
}

func reduceRows(rows []emitted, fn string, group bool) ([]reducedRow, error) {
	var groups [][]emitted
	if group {
		for _, row := range rows {
			if n := len(groups); n > 0 && collate(groups[n-1][0].key, row.key) == 0 {
				groups[n-1] = append(groups[n-1], row)
				continue
			}
			groups = append(groups, []emitted{row})
		}
	} else if len(rows) > 0 {
		groups = [][]emitted{rows}
	}
	out := make([]reducedRow, 0, len(groups))
	for _, g := range groups {
		var value interface{}
		switch fn {
		case ReduceCount:
			value = len(g)
		case ReduceSum:
			var sum float64
			for _, row := range g {
				var n float64
				if err := json.Unmarshal(row.value, &n); err != nil {
					return nil, errors.Errorf("the _sum function requires that map values be numbers, got %s", row.value)
				}
				sum += n
			}
			value = sum
		}
		key := json.RawMessage("null")
		if group {
			key = g[0].raw
		}
		out = append(out, reducedRow{Key: key, Value: mustMarshal(value)})
	}
	return out, nil
}

// collate compares two decoded JSON values in CouchDB view order: null,
// false, true, numbers, strings, arrays, objects. Strings compare by code
// point rather than by ICU collation.
func collate(a, b interface{}) int {
	ra, rb := collationRank(a), collationRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case []interface{}:
		bv := b.([]interface{})
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := collate(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	case map[string]interface{}:
		bv := b.(map[string]interface{})
		ak, bk := sortedKeys(av), sortedKeys(bv)
		for i := 0; i < len(ak) && i < len(bk); i++ {
			if c := strings.Compare(ak[i], bk[i]); c != 0 {
				return c
			}
			if c := collate(av[ak[i]], bv[bk[i]]); c != 0 {
				return c
			}
		}
		return len(ak) - len(bk)
	}
	return 0
}

func collationRank(v interface{}) int {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 2
		}
		return 1
	case float64:
		return 3
	case string:
		return 4
	case []interface{}:
		return 5
	}
	return 6
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
