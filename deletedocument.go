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

	"github.com/couchaction/couchdb/chttp"
)

// DeleteDocument deletes a document.
type DeleteDocument struct {
	client     *Client
	db         string
	docID      string
	rev        Revision
	fullCommit bool
}

var _ Action[struct{}] = DeleteDocument{}

// DeleteDocument returns an action that deletes docID from db, provided
// its current revision is rev.
func (c *Client) DeleteDocument(db, docID string, rev Revision) DeleteDocument {
	return DeleteDocument{client: c, db: db, docID: docID, rev: rev}
}

// FullCommit asks the server to commit the deletion to disk before
// responding.
func (a DeleteDocument) FullCommit(fullCommit bool) DeleteDocument {
	a.fullCommit = fullCommit
	return a
}

// MakeRequest builds the request. The revision is sent as If-Match.
func (a DeleteDocument) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	if a.docID == "" {
		return nil, missingArg("docID")
	}
	req, err := a.client.newRequest(http.MethodDelete, docPath(a.db, a.docID))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().IfMatch(a.rev.String()).FullCommit(a.fullCommit), nil
}

// TakeResponse interprets the server's response.
func (a DeleteDocument) TakeResponse(resp *chttp.Response) (struct{}, error) {
	switch resp.Status() {
	case http.StatusOK:
		return struct{}{}, resp.RequireContentTypeJSON()
	case http.StatusBadRequest:
		return struct{}{}, resp.Error(KindBadRequest)
	case http.StatusUnauthorized:
		return struct{}{}, resp.Error(KindUnauthorized)
	case http.StatusNotFound:
		return struct{}{}, resp.Error(KindNotFound)
	case http.StatusConflict:
		return struct{}{}, resp.Error(KindConflict)
	}
	return struct{}{}, resp.UnexpectedStatus()
}

// Run executes the action.
func (a DeleteDocument) Run(ctx context.Context) (struct{}, error) {
	return Run[struct{}](ctx, a.client, a)
}
