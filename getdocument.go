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
	"net/url"

	"github.com/couchaction/couchdb/chttp"
)

// GetDocument fetches a document.
type GetDocument struct {
	client      *Client
	db          string
	docID       string
	query       url.Values
	ifNoneMatch Revision
}

var _ Action[*Document] = GetDocument{}

// GetDocument returns an action that fetches the current revision of docID
// in db.
func (c *Client) GetDocument(db, docID string) GetDocument {
	return GetDocument{client: c, db: db, docID: docID}
}

// Rev requests a specific revision of the document. An empty rev requests
// the current revision.
func (a GetDocument) Rev(rev Revision) GetDocument {
	if rev.IsEmpty() {
		a.query = withoutQuery(a.query, "rev")
		return a
	}
	a.query = setQuery(a.query, "rev", rev.String())
	return a
}

// IfNoneMatch makes the request conditional: if the document's current
// revision is rev, Run returns a nil document and no error.
func (a GetDocument) IfNoneMatch(rev Revision) GetDocument {
	a.ifNoneMatch = rev
	return a
}

// Conflicts includes the _conflicts field in the content.
func (a GetDocument) Conflicts(conflicts bool) GetDocument {
	a.query = setQuery(a.query, "conflicts", conflicts)
	return a
}

// MakeRequest builds the request.
func (a GetDocument) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	if a.docID == "" {
		return nil, missingArg("docID")
	}
	req, err := a.client.newRequest(http.MethodGet, docPath(a.db, a.docID))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().IfNoneMatch(a.ifNoneMatch.String()).Query(a.query), nil
}

// TakeResponse interprets the server's response. A 304 Not Modified
// response yields a nil document.
func (a GetDocument) TakeResponse(resp *chttp.Response) (*Document, error) {
	switch resp.Status() {
	case http.StatusOK:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		return decodeDocument(resp)
	case http.StatusNotModified:
		return nil, nil
	case http.StatusBadRequest:
		return nil, resp.Error(KindBadRequest)
	case http.StatusUnauthorized:
		return nil, resp.Error(KindUnauthorized)
	case http.StatusNotFound:
		return nil, resp.Error(KindNotFound)
	}
	return nil, resp.UnexpectedStatus()
}

// Run executes the action.
func (a GetDocument) Run(ctx context.Context) (*Document, error) {
	return Run[*Document](ctx, a.client, a)
}
