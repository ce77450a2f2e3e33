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
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"

	"github.com/couchaction/couchdb/chttp"
)

func TestSequenceIDUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string

		expected SequenceID
		err      string
	}{
		{
			name:     "Couch 1.6",
			input:    "123",
			expected: "123",
		},
		{
			name:     "Couch 2.0",
			input:    `"1-seqfoo"`,
			expected: "1-seqfoo",
		},
		{
			name:  "invalid string",
			input: `"foo`,
			err:   "unexpected end of JSON input",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var seq SequenceID
			err := json.Unmarshal([]byte(test.input), &seq)
			testy.Error(t, test.err, err)
			if seq != test.expected {
				t.Errorf("Unexpected result: %s", seq)
			}
		})
	}
}

func TestGetChangesMakeRequest(t *testing.T) {
	req, err := testClient.GetChanges("db").Since(SinceNow).Limit(5).Descending(true).IncludeDocs(true).MakeRequest()
	if err != nil {
		t.Fatal(err)
	}
	expected := requestSummary{
		Method: http.MethodGet,
		URL:    "http://example.com/db/_changes?descending=true&include_docs=true&limit=5&since=now",
		Header: http.Header{"Accept": {typeJSON}},
	}
	if d := testy.DiffInterface(expected, summarize(req)); d != nil {
		t.Error(d)
	}
}

func TestGetChangesTakeResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *chttp.Response
		expected *Changes
		kind     Kind
		status   int
		err      string
	}{
		{
			name: "CouchDB 3.x",
			resp: jsonResponse(http.StatusOK, `{"results":[
				{"seq":"1-g1A","id":"foo","changes":[{"rev":"1-abc"}]},
				{"seq":"3-g1A","id":"bar","changes":[{"rev":"2-def"},{"rev":"2-deg"}],"deleted":true,"doc":{"_id":"bar","_rev":"2-def","_deleted":true}}
			],"last_seq":"3-g1A","pending":0}`),
			expected: &Changes{
				LastSeq: "3-g1A",
				Pending: uint64p(0),
				Results: []ChangeResult{
					{Seq: "1-g1A", ID: "foo", Revs: []Revision{MustParseRevision("1-abc")}},
					{
						Seq:     "3-g1A",
						ID:      "bar",
						Deleted: true,
						Revs:    []Revision{MustParseRevision("2-def"), MustParseRevision("2-deg")},
						Doc:     json.RawMessage(`{"_id":"bar","_rev":"2-def","_deleted":true}`),
					},
				},
			},
		},
		{
			name: "CouchDB 1.6",
			resp: jsonResponse(http.StatusOK, `{"results":[{"seq":4,"id":"foo","changes":[{"rev":"1-abc"}]}],"last_seq":4}`),
			expected: &Changes{
				LastSeq: "4",
				Results: []ChangeResult{
					{Seq: "4", ID: "foo", Revs: []Revision{MustParseRevision("1-abc")}},
				},
			},
		},
		{
			name: "missing last_seq",
			resp: jsonResponse(http.StatusOK, `{"results":[]}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "last_seq": missing`,
		},
		{
			name: "bad change rev",
			resp: jsonResponse(http.StatusOK, `{"results":[{"seq":1,"id":"foo","changes":[{"rev":"nope"}]}],"last_seq":1}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "results[0].changes[0].rev": invalid revision "nope"`,
		},
		{
			name: "mistyped id",
			resp: jsonResponse(http.StatusOK, `{"results":[{"seq":1,"id":7,"changes":[]}],"last_seq":1}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "results[0].id": expected string, got number`,
		},
		{
			name:   "no database",
			resp:   jsonResponse(http.StatusNotFound, `{"error":"not_found","reason":"Database does not exist."}`),
			kind:   KindNotFound,
			status: http.StatusNotFound,
			err:    "Not Found: Database does not exist.",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			changes, err := GetChanges{}.TakeResponse(test.resp)
			if KindOf(err) != test.kind {
				t.Errorf("Unexpected kind: %s (expected %s)", KindOf(err), test.kind)
			}
			testy.StatusError(t, test.err, test.status, err)
			if d := testy.DiffInterface(test.expected, changes); d != nil {
				t.Error(d)
			}
		})
	}
}
