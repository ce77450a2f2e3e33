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
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

type document struct {
	id      string
	rev     string
	deleted bool
	seq     uint64
	// body holds the document's fields, without _id, _rev or _deleted.
	body map[string]json.RawMessage
}

func (d *document) local() bool {
	return strings.HasPrefix(d.id, "_local/")
}

func (d *document) design() bool {
	return strings.HasPrefix(d.id, "_design/")
}

func (d *document) size() uint64 {
	var n uint64
	for k, v := range d.body {
		n += uint64(len(k) + len(v))
	}
	return n
}

// full returns the document as CouchDB serves it.
func (d *document) full() map[string]json.RawMessage {
	doc := make(map[string]json.RawMessage, len(d.body)+3)
	for k, v := range d.body {
		doc[k] = v
	}
	doc["_id"] = mustMarshal(d.id)
	doc["_rev"] = mustMarshal(d.rev)
	if d.deleted {
		doc["_deleted"] = json.RawMessage("true")
	}
	return doc
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func revGeneration(rev string) uint64 {
	num, _, _ := strings.Cut(rev, "-")
	n, _ := strconv.ParseUint(num, 10, 64)
	return n
}

// nextRev computes the revision following prev for the given content.
// Local documents get CouchDB's "0-N" revisions.
func nextRev(id, prev string, body map[string]json.RawMessage, deleted bool) string {
	gen := revGeneration(prev) + 1
	if strings.HasPrefix(id, "_local/") {
		return fmt.Sprintf("0-%d", gen)
	}
	h := md5.New()
	_, _ = io.WriteString(h, prev)
	_, _ = h.Write(mustMarshal(body))
	if deleted {
		_, _ = io.WriteString(h, "deleted")
	}
	return fmt.Sprintf("%d-%s", gen, hex.EncodeToString(h.Sum(nil)))
}

// updateError is a CouchDB error response.
type updateError struct {
	status int
	name   string
	reason string
}

func (e *updateError) write(w http.ResponseWriter) {
	writeError(w, e.status, e.name, e.reason)
}

var errConflict = &updateError{status: http.StatusConflict, name: "conflict", reason: "Document update conflict."}

func validateDocID(id string) *updateError {
	switch {
	case id == "", id == "_design/", id == "_local/":
		return &updateError{status: http.StatusBadRequest, name: "illegal_docid", reason: "Document id must not be empty"}
	case strings.HasPrefix(id, "_") && !strings.HasPrefix(id, "_design/") && !strings.HasPrefix(id, "_local/"):
		return &updateError{status: http.StatusBadRequest, name: "illegal_docid", reason: "Only reserved document ids may start with underscore."}
	}
	return nil
}

// update writes a new revision of id, which must be based on rev. The
// caller must hold s.mu.
func (db *database) update(id, rev string, fields map[string]json.RawMessage) (*document, *updateError) {
	if err := validateDocID(id); err != nil {
		return nil, err
	}
	body := make(map[string]json.RawMessage, len(fields))
	var deleted bool
	for k, v := range fields {
		switch k {
		case "_id", "_rev":
		case "_deleted":
			deleted = string(v) == "true"
		default:
			if strings.HasPrefix(k, "_") {
				return nil, &updateError{status: http.StatusBadRequest, name: "doc_validation", reason: "Bad special document member: " + k}
			}
			body[k] = v
		}
	}
	doc := db.docs[id]
	var prev string
	switch {
	case doc == nil:
		if rev != "" {
			return nil, errConflict
		}
	case doc.deleted:
		if rev != "" && rev != doc.rev {
			return nil, errConflict
		}
		prev = doc.rev
	default:
		if rev != doc.rev {
			return nil, errConflict
		}
		prev = doc.rev
	}
	if doc == nil {
		doc = &document{id: id}
		db.docs[id] = doc
	}
	doc.rev = nextRev(id, prev, body, deleted)
	doc.deleted = deleted
	doc.body = body
	if !doc.local() {
		doc.seq = db.nextSeq()
	}
	return doc, nil
}

// requestRev collects the revision a write is based on from the If-Match
// header, the rev query parameter and the body's _rev field. All that are
// present must agree.
func requestRev(r *http.Request, fields map[string]json.RawMessage) (string, *updateError) {
	var revs []string
	if etag := r.Header.Get("If-Match"); etag != "" {
		revs = append(revs, strings.Trim(etag, `"`))
	}
	if rev := r.URL.Query().Get("rev"); rev != "" {
		revs = append(revs, rev)
	}
	if raw, ok := fields["_rev"]; ok {
		var rev string
		if err := json.Unmarshal(raw, &rev); err != nil {
			return "", &updateError{status: http.StatusBadRequest, name: "bad_request", reason: "Invalid rev format"}
		}
		if rev != "" {
			revs = append(revs, rev)
		}
	}
	if len(revs) == 0 {
		return "", nil
	}
	for _, rev := range revs[1:] {
		if rev != revs[0] {
			return "", &updateError{status: http.StatusBadRequest, name: "bad_request", reason: "Document rev and etag have different values"}
		}
	}
	return revs[0], nil
}

func readFields(r *http.Request) (map[string]json.RawMessage, *updateError) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		return nil, &updateError{status: http.StatusBadRequest, name: "bad_request", reason: "Document must be a JSON object"}
	}
	return fields, nil
}

func writeRev(w http.ResponseWriter, status int, doc *document) {
	w.Header().Set("ETag", `"`+doc.rev+`"`)
	writeJSON(w, status, map[string]interface{}{
		"ok":  true,
		"id":  doc.id,
		"rev": doc.rev,
	})
}

// document returns the handler for documents whose IDs begin with prefix.
func (s *FakeServer) document(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := prefix + docParam(r, "doc")
		s.mu.Lock()
		defer s.mu.Unlock()
		db, ok := s.lookupDB(w, r)
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			getDoc(w, r, db, id)
		case http.MethodPut:
			putDoc(w, r, db, id)
		case http.MethodDelete:
			deleteDoc(w, r, db, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only DELETE,GET,HEAD,PUT allowed")
		}
	}
}

func getDoc(w http.ResponseWriter, r *http.Request, db *database, id string) {
	doc := db.docs[id]
	rev := r.URL.Query().Get("rev")
	switch {
	case doc == nil, rev != "" && rev != doc.rev:
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	case rev == "" && doc.deleted:
		writeError(w, http.StatusNotFound, "not_found", "deleted")
		return
	}
	etag := `"` + doc.rev + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, doc.full())
}

func putDoc(w http.ResponseWriter, r *http.Request, db *database, id string) {
	fields, uerr := readFields(r)
	if uerr != nil {
		uerr.write(w)
		return
	}
	rev, uerr := requestRev(r, fields)
	if uerr != nil {
		uerr.write(w)
		return
	}
	doc, uerr := db.update(id, rev, fields)
	if uerr != nil {
		uerr.write(w)
		return
	}
	writeRev(w, http.StatusCreated, doc)
}

func deleteDoc(w http.ResponseWriter, r *http.Request, db *database, id string) {
	doc := db.docs[id]
	switch {
	case doc == nil:
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	case doc.deleted:
		writeError(w, http.StatusNotFound, "not_found", "deleted")
		return
	}
	rev, uerr := requestRev(r, nil)
	if uerr != nil {
		uerr.write(w)
		return
	}
	doc, uerr = db.update(id, rev, map[string]json.RawMessage{"_deleted": json.RawMessage("true")})
	if uerr != nil {
		uerr.write(w)
		return
	}
	writeRev(w, http.StatusOK, doc)
}

func (s *FakeServer) postDoc(w http.ResponseWriter, r *http.Request) {
	fields, uerr := readFields(r)
	if uerr != nil {
		uerr.write(w)
		return
	}
	batch := r.URL.Query().Get("batch") == "ok"
	id := newUUID()
	if raw, ok := fields["_id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			writeError(w, http.StatusBadRequest, "illegal_docid", "Document id must be a string")
			return
		}
	}
	rev, uerr := requestRev(r, fields)
	if uerr != nil {
		uerr.write(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	doc, uerr := db.update(id, rev, fields)
	if uerr != nil {
		uerr.write(w)
		return
	}
	if batch {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"ok": true, "id": doc.id})
		return
	}
	writeRev(w, http.StatusCreated, doc)
}
