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
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"

	"github.com/couchaction/couchdb/chttp"
)

func TestGetServerTakeResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *chttp.Response
		expected *ServerInfo
		kind     Kind
		status   int
		err      string
	}{
		{
			name: "CouchDB 3.x",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome","version":"3.3.2","git_sha":"11a234070","uuid":"d5d1b3b4","features":["access-ready","partitioned"],"vendor":{"name":"The Apache Software Foundation"}}`),
			expected: &ServerInfo{
				CouchDB:  "Welcome",
				Version:  "3.3.2",
				UUID:     "d5d1b3b4",
				Vendor:   VendorCouchDB,
				Features: []string{"access-ready", "partitioned"},
			},
		},
		{
			name: "CouchDB 1.6",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome","uuid":"a902efb0fac143c2b1f97160796a6347","version":"1.6.1","vendor":{"name":"Ubuntu","version":"15.04"}}`),
			expected: &ServerInfo{
				CouchDB: "Welcome",
				Version: "1.6.1",
				UUID:    "a902efb0fac143c2b1f97160796a6347",
				Vendor:  "Ubuntu",
			},
		},
		{
			name: "Cloudant 2017-10-23",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome","version":"2.0.0","vendor":{"name":"IBM Cloudant","version":"6365","variant":"paas"},"features":["geo","scheduler"]}`),
			expected: &ServerInfo{
				CouchDB:  "Welcome",
				Version:  "2.0.0",
				Vendor:   VendorCloudant,
				Features: []string{"geo", "scheduler"},
			},
		},
		{
			name: "invalid vendor name",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome","version":"1.6.1","vendor":{"name":[]}}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "vendor.name": expected string, got array`,
		},
		{
			name: "missing version",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome"}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "version": missing`,
		},
		{
			name: "bad feature",
			resp: jsonResponse(http.StatusOK, `{"couchdb":"Welcome","version":"3.3.2","features":[1]}`),
			kind: KindUnexpectedContent,
			err:  `couchdb: unexpected content: field "features[0]": expected string, got number`,
		},
		{
			name: "not JSON",
			resp: textResponse(http.StatusOK, "Welcome"),
			kind: KindUnexpectedContentType,
			err:  "couchdb: unexpected content type: text/plain",
		},
		{
			name:   "unexpected status",
			resp:   jsonResponse(http.StatusServiceUnavailable, `{"error":"nodedown"}`),
			kind:   KindUnexpectedHTTPStatus,
			status: http.StatusServiceUnavailable,
			err:    "couchdb: unexpected HTTP status 503 Service Unavailable",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			info, err := GetServer{}.TakeResponse(test.resp)
			if KindOf(err) != test.kind {
				t.Errorf("Unexpected kind: %s (expected %s)", KindOf(err), test.kind)
			}
			testy.StatusError(t, test.err, test.status, err)
			if d := testy.DiffInterface(test.expected, info); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestGetServerMakeRequest(t *testing.T) {
	req, err := testClient.GetServer().MakeRequest()
	if err != nil {
		t.Fatal(err)
	}
	expected := requestSummary{
		Method: http.MethodGet,
		URL:    "http://example.com/",
		Header: http.Header{"Accept": {typeJSON}},
	}
	if d := testy.DiffInterface(expected, summarize(req)); d != nil {
		t.Error(d)
	}
}
