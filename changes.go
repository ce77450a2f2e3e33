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
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/chttp"
)

// SequenceID is an update sequence. CouchDB 1.x reports sequences as
// integers, later versions as opaque strings; both are kept as strings.
type SequenceID string

// UnmarshalJSON accepts a JSON string or number.
func (id *SequenceID) UnmarshalJSON(data []byte) error {
	sid := SequenceID(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		sid = SequenceID(s)
	}
	*id = sid
	return nil
}

// Changes is one page of a database's changes feed.
type Changes struct {
	LastSeq SequenceID
	// Pending is the number of changes remaining after this page, if the
	// server reports it.
	Pending *uint64
	Results []ChangeResult
}

// ChangeResult is one entry of the changes feed.
type ChangeResult struct {
	Seq     SequenceID
	ID      string
	Deleted bool
	// Revs lists the leaf revisions of the document.
	Revs []Revision
	// Doc is set when the request includes documents.
	Doc json.RawMessage
}

// GetChanges reads a database's changes feed, in normal (non-continuous)
// mode.
type GetChanges struct {
	client *Client
	db     string
	query  url.Values
}

var _ Action[*Changes] = GetChanges{}

// GetChanges returns an action that reads the changes feed of db.
func (c *Client) GetChanges(db string) GetChanges {
	return GetChanges{client: c, db: db}
}

func (a GetChanges) withQuery(name string, value interface{}) GetChanges {
	a.query = setQuery(a.query, name, value)
	return a
}

// Since starts the feed after seq. Use SinceNow to skip existing changes.
func (a GetChanges) Since(seq SequenceID) GetChanges { return a.withQuery("since", seq) }

// Limit limits the number of results.
func (a GetChanges) Limit(limit uint64) GetChanges { return a.withQuery("limit", limit) }

// Descending returns the most recent changes first.
func (a GetChanges) Descending(descending bool) GetChanges {
	return a.withQuery("descending", descending)
}

// IncludeDocs includes each changed document.
func (a GetChanges) IncludeDocs(includeDocs bool) GetChanges {
	return a.withQuery("include_docs", includeDocs)
}

// MakeRequest builds the request.
func (a GetChanges) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodGet, "/"+escapeDBName(a.db)+"/_changes")
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().Query(a.query), nil
}

// TakeResponse interprets the server's response.
func (a GetChanges) TakeResponse(resp *chttp.Response) (*Changes, error) {
	switch resp.Status() {
	case http.StatusOK:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		return decodeChanges(resp)
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
func (a GetChanges) Run(ctx context.Context) (*Changes, error) {
	return Run[*Changes](ctx, a.client, a)
}

func decodeChanges(resp *chttp.Response) (*Changes, error) {
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	changes := &Changes{
		LastSeq: SequenceID(obj.Seq("last_seq")),
	}
	if n, ok := obj.OptUint64("pending"); ok {
		changes.Pending = &n
	}
	results := obj.Objects("results")
	changes.Results = make([]ChangeResult, 0, len(results))
	for i, result := range results {
		cr := ChangeResult{
			Seq:     SequenceID(result.Seq("seq")),
			ID:      result.String("id"),
			Deleted: result.OptBool("deleted"),
			Doc:     result.OptRaw("doc"),
		}
		for j, change := range result.Objects("changes") {
			s := change.String("rev")
			if obj.Err() != nil {
				break
			}
			rev, err := ParseRevision(s)
			if err != nil {
				return nil, resp.UnexpectedContent(errors.Errorf("field \"results[%d].changes[%d].rev\": invalid revision %q", i, j, s))
			}
			cr.Revs = append(cr.Revs, rev)
		}
		changes.Results = append(changes.Results, cr)
	}
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	return changes, nil
}
