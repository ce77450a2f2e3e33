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
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestDocumentScanContent(t *testing.T) {
	doc := &Document{
		ID:      "foo",
		Rev:     MustParseRevision("1-abc"),
		Content: json.RawMessage(`{"name":"bob","age":42}`),
	}
	var person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	if err := doc.ScanContent(&person); err != nil {
		t.Fatal(err)
	}
	if person.Name != "bob" || person.Age != 42 {
		t.Errorf("Unexpected result: %+v", person)
	}

	var wrong []string
	err := doc.ScanContent(&wrong)
	if KindOf(err) != KindDecode {
		t.Errorf("Unexpected kind: %s", KindOf(err))
	}
	testy.ErrorRE(t, "^couchdb: scan document content: json: cannot unmarshal object", err)
}

func TestDocPath(t *testing.T) {
	tests := map[string]struct {
		db, id   string
		expected string
	}{
		"plain":  {db: "db", id: "foo", expected: "/db/foo"},
		"design": {db: "db", id: "_design/foo", expected: "/db/_design/foo"},
		"local":  {db: "db", id: "_local/foo", expected: "/db/_local/foo"},
		"slash":  {db: "a/b", id: "c/d", expected: "/a%2Fb/c%2Fd"},
		"space":  {db: "db", id: "foo bar", expected: "/db/foo+bar"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if p := docPath(test.db, test.id); p != test.expected {
				t.Errorf("Unexpected path: %s (expected %s)", p, test.expected)
			}
		})
	}
}
