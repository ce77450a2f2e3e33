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

package couchdb

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/couchaction/couchdb/chttp"
)

// Revision identifies one version of a document, in the form
// "<update_number>-<hash>". The zero Revision is empty, and means "no
// revision constraint" wherever a Revision is optional.
//
// Revisions compare lexically over their string form. This ordering is
// stable for sorting and test output, but says nothing about which revision
// is newer.
type Revision struct {
	s string
}

// ParseRevision parses s, which must be of the form "<digits>-<token>".
func ParseRevision(s string) (Revision, error) {
	num, hash, ok := strings.Cut(s, "-")
	if !ok || num == "" || hash == "" {
		return Revision{}, badArgument("invalid revision %q", s)
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return Revision{}, badArgument("invalid revision %q", s)
		}
	}
	if _, err := strconv.ParseUint(num, 10, 64); err != nil {
		return Revision{}, badArgument("invalid revision %q", s)
	}
	for i := 0; i < len(hash); i++ {
		if !isETagChar(hash[i]) {
			return Revision{}, badArgument("invalid revision %q", s)
		}
	}
	return Revision{s: s}, nil
}

// isETagChar reports whether c may appear inside a quoted entity tag
// (RFC 7232 etagc), excluding obs-text.
func isETagChar(c byte) bool {
	return c > 0x20 && c < 0x7f && c != '"'
}

// MustParseRevision is like ParseRevision, but panics on error.
func MustParseRevision(s string) Revision {
	rev, err := ParseRevision(s)
	if err != nil {
		panic(err)
	}
	return rev
}

// ParseETag parses the value of an ETag header, as returned by HEAD and GET
// requests for documents.
func ParseETag(etag string) (Revision, error) {
	return ParseRevision(chttp.UnquoteETag(etag))
}

// String returns the revision in its "N-hash" wire form.
func (r Revision) String() string {
	return r.s
}

// IsEmpty reports whether r is the empty revision.
func (r Revision) IsEmpty() bool {
	return r.s == ""
}

// ETag returns the revision as a quoted entity tag, suitable for If-Match
// and If-None-Match headers, or "" for the empty revision.
func (r Revision) ETag() string {
	if r.s == "" {
		return ""
	}
	return `"` + r.s + `"`
}

// UpdateNumber returns the numeric prefix of the revision, or 0 for the
// empty revision.
func (r Revision) UpdateNumber() uint64 {
	num, _, _ := strings.Cut(r.s, "-")
	n, _ := strconv.ParseUint(num, 10, 64)
	return n
}

// Hash returns the part of the revision following the update number.
func (r Revision) Hash() string {
	_, hash, _ := strings.Cut(r.s, "-")
	return hash
}

// Compare returns -1, 0 or 1 as r sorts before, equal to, or after o.
func (r Revision) Compare(o Revision) int {
	return strings.Compare(r.s, o.s)
}

// Less reports whether r sorts before o.
func (r Revision) Less(o Revision) bool {
	return r.s < o.s
}

// MarshalJSON encodes the revision as a JSON string.
func (r Revision) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.s)
}

// UnmarshalJSON decodes a JSON string into a Revision. An empty string or
// null yields the empty revision.
func (r *Revision) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*r = Revision{}
		return nil
	}
	rev, err := ParseRevision(*s)
	if err != nil {
		return err
	}
	*r = rev
	return nil
}
