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

// HeadDocument fetches the current revision of a document without its
// body.
type HeadDocument struct {
	client      *Client
	db          string
	docID       string
	ifNoneMatch Revision
}

var _ Action[*DocumentHead] = HeadDocument{}

// HeadDocument returns an action that checks docID in db.
func (c *Client) HeadDocument(db, docID string) HeadDocument {
	return HeadDocument{client: c, db: db, docID: docID}
}

// IfNoneMatch makes the request conditional: if the document's current
// revision is rev, Run returns nil and no error.
func (a HeadDocument) IfNoneMatch(rev Revision) HeadDocument {
	a.ifNoneMatch = rev
	return a
}

// MakeRequest builds the request.
func (a HeadDocument) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	if a.docID == "" {
		return nil, missingArg("docID")
	}
	req, err := a.client.newRequest(http.MethodHead, docPath(a.db, a.docID))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().IfNoneMatch(a.ifNoneMatch.String()), nil
}

// TakeResponse interprets the server's response. The revision is read
// from the ETag header.
func (a HeadDocument) TakeResponse(resp *chttp.Response) (*DocumentHead, error) {
	switch resp.Status() {
	case http.StatusOK:
		head := &DocumentHead{}
		if etag := resp.ETag(); etag != "" {
			rev, err := ParseRevision(etag)
			if err != nil {
				return nil, resp.UnexpectedContent(errors.Errorf("invalid ETag %q", etag))
			}
			head.Rev = rev
		}
		return head, nil
	case http.StatusNotModified:
		return nil, nil
	case http.StatusNotFound:
		return nil, resp.Error(KindNotFound)
	}
	return nil, resp.UnexpectedStatus()
}

// Run executes the action.
func (a HeadDocument) Run(ctx context.Context) (*DocumentHead, error) {
	return Run[*DocumentHead](ctx, a.client, a)
}
