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
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/chttp"
)

// PutDocument creates or updates a document.
type PutDocument struct {
	client     *Client
	db         string
	docID      string
	content    interface{}
	ifMatch    Revision
	fullCommit bool
}

var _ Action[Revision] = PutDocument{}

// PutDocument returns an action that stores content as docID in db.
// content is encoded with encoding/json; a string, []byte or
// json.RawMessage is sent as-is after validation.
func (c *Client) PutDocument(db, docID string, content interface{}) PutDocument {
	return PutDocument{client: c, db: db, docID: docID, content: content}
}

// IfMatch guards the update: it succeeds only if the document's current
// revision is rev, and fails with KindConflict otherwise. An empty rev
// removes the guard, which is how a new document is created.
func (a PutDocument) IfMatch(rev Revision) PutDocument {
	a.ifMatch = rev
	return a
}

// FullCommit asks the server to commit the write to disk before
// responding.
func (a PutDocument) FullCommit(fullCommit bool) PutDocument {
	a.fullCommit = fullCommit
	return a
}

// MakeRequest builds the request.
func (a PutDocument) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	if a.docID == "" {
		return nil, missingArg("docID")
	}
	body, err := chttp.EncodeJSON(a.content)
	if err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodPut, docPath(a.db, a.docID))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().
		ContentTypeJSON().
		IfMatch(a.ifMatch.String()).
		FullCommit(a.fullCommit).
		Body(body), nil
}

// TakeResponse interprets the server's response, returning the new
// revision.
func (a PutDocument) TakeResponse(resp *chttp.Response) (Revision, error) {
	switch resp.Status() {
	case http.StatusCreated:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return Revision{}, err
		}
		return decodeRev(resp)
	case http.StatusBadRequest:
		return Revision{}, resp.Error(KindBadRequest)
	case http.StatusUnauthorized:
		return Revision{}, resp.Error(KindUnauthorized)
	case http.StatusNotFound:
		return Revision{}, resp.Error(KindNotFound)
	case http.StatusConflict:
		return Revision{}, resp.Error(KindConflict)
	}
	return Revision{}, resp.UnexpectedStatus()
}

// Run executes the action.
func (a PutDocument) Run(ctx context.Context) (Revision, error) {
	return Run[Revision](ctx, a.client, a)
}

// decodeRev reads the "rev" field of a write acknowledgement.
func decodeRev(resp *chttp.Response) (Revision, error) {
	obj, err := resp.Object()
	if err != nil {
		return Revision{}, err
	}
	s := obj.String("rev")
	if err := obj.Err(); err != nil {
		return Revision{}, resp.UnexpectedContent(err)
	}
	rev, err := ParseRevision(s)
	if err != nil {
		return Revision{}, resp.UnexpectedContent(errors.Errorf("field \"rev\": invalid revision %q", s))
	}
	return rev, nil
}
