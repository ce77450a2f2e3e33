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

	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/chttp"
)

// Document is a document as returned by the server.
type Document struct {
	ID      string
	Rev     Revision
	Deleted bool

	// Content is the document body with the _id, _rev and _deleted fields
	// removed.
	Content json.RawMessage
}

// ScanContent decodes the document content into dest.
func (d *Document) ScanContent(dest interface{}) error {
	if err := json.Unmarshal(d.Content, dest); err != nil {
		return &Error{Kind: KindDecode, Err: errors.Wrap(err, "scan document content")}
	}
	return nil
}

// DocumentHead is the result of a HEAD request for a document.
type DocumentHead struct {
	Rev Revision
}

func decodeDocument(resp *chttp.Response) (*Document, error) {
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	doc := &Document{
		ID:      obj.String("_id"),
		Deleted: obj.OptBool("_deleted"),
	}
	rev := obj.String("_rev")
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	if doc.Rev, err = ParseRevision(rev); err != nil {
		return nil, resp.UnexpectedContent(errors.Errorf("field \"_rev\": invalid revision %q", rev))
	}
	doc.Content = obj.Without("_id", "_rev", "_deleted")
	return doc, nil
}

// docPath returns the escaped path of a document.
func docPath(db, docID string) string {
	return "/" + escapeDBName(db) + "/" + chttp.EncodeDocID(docID)
}
