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

package chttp

import (
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestRequireContentTypeJSON(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		err    string
	}{
		{
			name:   "json",
			header: http.Header{"Content-Type": {"application/json"}},
		},
		{
			name:   "json with charset",
			header: http.Header{"Content-Type": {"application/json; charset=utf-8"}},
		},
		{
			name:   "missing",
			header: http.Header{},
			err:    "couchdb: unexpected content type: missing Content-Type header",
		},
		{
			name:   "text plain",
			header: http.Header{"Content-Type": {"text/plain"}},
			err:    "couchdb: unexpected content type: text/plain",
		},
		{
			name:   "unparsable",
			header: http.Header{"Content-Type": {"application/json; ="}},
			err:    "couchdb: unexpected content type: mime: invalid media parameter",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := &Response{StatusCode: http.StatusOK, Header: test.header, Body: []byte("{}")}
			err := resp.RequireContentTypeJSON()
			if test.err != "" && KindOf(err) != KindUnexpectedContentType {
				t.Errorf("unexpected kind: %s", KindOf(err))
			}
			testy.Error(t, test.err, err)
		})
	}
}

func TestResponseDecodeJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var v map[string]string
		err := jsonResponse(http.StatusOK, `{"ok":"yes"}`).DecodeJSON(&v)
		testy.Error(t, "", err)
		if v["ok"] != "yes" {
			t.Errorf("unexpected value: %v", v)
		}
	})
	t.Run("wrong shape", func(t *testing.T) {
		var v []string
		err := jsonResponse(http.StatusOK, `{"ok":"yes"}`).DecodeJSON(&v)
		if KindOf(err) != KindUnexpectedContent {
			t.Errorf("unexpected kind: %s", KindOf(err))
		}
		testy.Error(t, "couchdb: unexpected content: json: cannot unmarshal object into Go value of type []string", err)
	})
	t.Run("malformed", func(t *testing.T) {
		var v map[string]string
		err := jsonResponse(http.StatusOK, `{"ok":`).DecodeJSON(&v)
		if KindOf(err) != KindDecode {
			t.Errorf("unexpected kind: %s", KindOf(err))
		}
		testy.Error(t, "couchdb: decode response body: unexpected end of JSON input", err)
	})
}

func TestResponseObject(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind Kind
		err  string
	}{
		{
			name: "object",
			body: `{"a":1}`,
		},
		{
			name: "malformed",
			body: `{"a":`,
			kind: KindDecode,
			err:  "couchdb: decode response body: unexpected end of JSON input",
		},
		{
			name: "not an object",
			body: `[1,2]`,
			kind: KindUnexpectedContent,
			err:  "couchdb: unexpected content: expected JSON object, got array",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := jsonResponse(http.StatusOK, test.body)
			_, err := resp.Object()
			if KindOf(err) != test.kind && test.kind != KindNone {
				t.Errorf("unexpected kind: %s", KindOf(err))
			}
			if test.err != "" {
				if e, ok := err.(*Error); !ok || string(e.Body) != test.body {
					t.Errorf("raw body not preserved: %v", err)
				}
			}
			testy.Error(t, test.err, err)
		})
	}
}

func TestResponseError(t *testing.T) {
	tests := []struct {
		name     string
		resp     *Response
		kind     Kind
		expected *ErrorResponse
		err      string
		status   int
	}{
		{
			name:     "well formed body",
			resp:     jsonResponse(http.StatusNotFound, `{"error":"not_found","reason":"missing"}`),
			kind:     KindNotFound,
			expected: &ErrorResponse{Error: "not_found", Reason: "missing"},
			err:      "Not Found: missing",
			status:   http.StatusNotFound,
		},
		{
			name:     "reason absent",
			resp:     jsonResponse(http.StatusConflict, `{"error":"conflict"}`),
			kind:     KindConflict,
			expected: &ErrorResponse{Error: "conflict"},
			err:      "Conflict",
			status:   http.StatusConflict,
		},
		{
			name:   "malformed body",
			resp:   jsonResponse(http.StatusBadRequest, `{"error":`),
			kind:   KindBadRequest,
			err:    "Bad Request",
			status: http.StatusBadRequest,
		},
		{
			name:   "body lacks error field",
			resp:   jsonResponse(http.StatusUnauthorized, `{"reason":"nope"}`),
			kind:   KindUnauthorized,
			err:    "Unauthorized",
			status: http.StatusUnauthorized,
		},
		{
			name: "not json",
			resp: &Response{
				StatusCode: http.StatusPreconditionFailed,
				Header:     http.Header{"Content-Type": {"text/html"}},
				Body:       []byte(`{"error":"file_exists","reason":"exists"}`),
			},
			kind:   KindDatabaseExists,
			err:    "Precondition Failed",
			status: http.StatusPreconditionFailed,
		},
		{
			name:   "no body",
			resp:   &Response{StatusCode: http.StatusNotFound, Header: http.Header{}},
			kind:   KindNotFound,
			err:    "Not Found",
			status: http.StatusNotFound,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.resp.Error(test.kind)
			if KindOf(err) != test.kind {
				t.Errorf("unexpected kind: %s", KindOf(err))
			}
			if d := testy.DiffInterface(test.expected, err.(*Error).Response); d != nil {
				t.Error(d)
			}
			testy.StatusError(t, test.err, test.status, err)
		})
	}
}

func TestResponseUnexpectedStatus(t *testing.T) {
	err := jsonResponse(http.StatusTeapot, `{"error":"teapot"}`).UnexpectedStatus()
	if KindOf(err) != KindUnexpectedHTTPStatus {
		t.Errorf("unexpected kind: %s", KindOf(err))
	}
	testy.StatusError(t, "couchdb: unexpected HTTP status 418 I'm a teapot", http.StatusTeapot, err)
}

func TestResponseETag(t *testing.T) {
	resp := &Response{Header: http.Header{"Etag": {`"3-xyz"`}}}
	if etag := resp.ETag(); etag != "3-xyz" {
		t.Errorf("unexpected etag: %s", etag)
	}
}
