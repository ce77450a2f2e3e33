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

// PostResult is the server's acknowledgement of a new document.
type PostResult struct {
	ID string
	// Rev is empty for a batched write.
	Rev Revision
}

// PostToDatabase creates a document, letting the server assign its ID
// unless the content has an _id field.
type PostToDatabase struct {
	client     *Client
	db         string
	content    interface{}
	batch      bool
	fullCommit bool
}

var _ Action[*PostResult] = PostToDatabase{}

// PostToDatabase returns an action that creates a new document in db.
func (c *Client) PostToDatabase(db string, content interface{}) PostToDatabase {
	return PostToDatabase{client: c, db: db, content: content}
}

// Batch requests batch mode, where the server acknowledges the write (202
// Accepted) before it is committed.
func (a PostToDatabase) Batch(batch bool) PostToDatabase {
	a.batch = batch
	return a
}

// FullCommit asks the server to commit the write to disk before
// responding.
func (a PostToDatabase) FullCommit(fullCommit bool) PostToDatabase {
	a.fullCommit = fullCommit
	return a
}

// MakeRequest builds the request.
func (a PostToDatabase) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	body, err := chttp.EncodeJSON(a.content)
	if err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodPost, "/"+escapeDBName(a.db))
	if err != nil {
		return nil, err
	}
	req = req.AcceptJSON().ContentTypeJSON().FullCommit(a.fullCommit).Body(body)
	if a.batch {
		req = req.Query(setQuery(nil, "batch", "ok"))
	}
	return req, nil
}

// TakeResponse interprets the server's response.
func (a PostToDatabase) TakeResponse(resp *chttp.Response) (*PostResult, error) {
	switch resp.Status() {
	case http.StatusCreated, http.StatusAccepted:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		obj, err := resp.Object()
		if err != nil {
			return nil, err
		}
		id := obj.String("id")
		var rev string
		if resp.Status() == http.StatusCreated {
			rev = obj.String("rev")
		} else {
			// Batched writes are acknowledged before a revision exists.
			rev, _ = obj.OptString("rev")
		}
		if err := obj.Err(); err != nil {
			return nil, resp.UnexpectedContent(err)
		}
		result := &PostResult{ID: id}
		if rev == "" && resp.Status() == http.StatusAccepted {
			return result, nil
		}
		if result.Rev, err = ParseRevision(rev); err != nil {
			return nil, resp.UnexpectedContent(errors.Errorf("field \"rev\": invalid revision %q", rev))
		}
		return result, nil
	case http.StatusBadRequest:
		return nil, resp.Error(KindBadRequest)
	case http.StatusUnauthorized:
		return nil, resp.Error(KindUnauthorized)
	case http.StatusNotFound:
		return nil, resp.Error(KindNotFound)
	case http.StatusConflict:
		return nil, resp.Error(KindConflict)
	}
	return nil, resp.UnexpectedStatus()
}

// Run executes the action.
func (a PostToDatabase) Run(ctx context.Context) (*PostResult, error) {
	return Run[*PostResult](ctx, a.client, a)
}
