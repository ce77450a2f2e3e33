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
	"strings"

	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/chttp"
)

// ViewResult is the result of a view query.
type ViewResult struct {
	// TotalRows and Offset are nil for reduced results.
	TotalRows *uint64
	Offset    *uint64
	Rows      []ViewRow
}

// ViewRow is a single row of a view result.
type ViewRow struct {
	// ID is the source document ID. It is empty for reduced rows.
	ID    string
	Key   json.RawMessage
	Value json.RawMessage
	// Doc is set when the query includes documents.
	Doc json.RawMessage
}

// ScanKey decodes the row's key into dest.
func (r *ViewRow) ScanKey(dest interface{}) error {
	return scanRaw("key", r.Key, dest)
}

// ScanValue decodes the row's value into dest.
func (r *ViewRow) ScanValue(dest interface{}) error {
	return scanRaw("value", r.Value, dest)
}

// ScanDoc decodes the row's document into dest.
func (r *ViewRow) ScanDoc(dest interface{}) error {
	return scanRaw("doc", r.Doc, dest)
}

func scanRaw(name string, raw json.RawMessage, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return &Error{Kind: KindDecode, Err: errors.Wrapf(err, "scan %s", name)}
	}
	return nil
}

// GetView queries a view.
type GetView struct {
	client *Client
	db     string
	ddoc   string
	view   string
	query  url.Values
	// keys holds JSON-valued parameters, encoded when the request is made.
	keys map[string]interface{}
}

var _ Action[*ViewResult] = GetView{}

// GetView returns an action that queries view in design document ddoc. The
// "_design/" prefix of ddoc is optional.
func (c *Client) GetView(db, ddoc, view string) GetView {
	return GetView{
		client: c,
		db:     db,
		ddoc:   strings.TrimPrefix(ddoc, "_design/"),
		view:   view,
	}
}

func (a GetView) withKey(name string, value interface{}) GetView {
	keys := make(map[string]interface{}, len(a.keys)+1)
	for k, v := range a.keys {
		keys[k] = v
	}
	keys[name] = value
	a.keys = keys
	return a
}

func (a GetView) withQuery(name string, value interface{}) GetView {
	a.query = setQuery(a.query, name, value)
	return a
}

// StartKey returns rows whose key sorts at or after key.
func (a GetView) StartKey(key interface{}) GetView { return a.withKey("startkey", key) }

// EndKey returns rows whose key sorts at or before key.
func (a GetView) EndKey(key interface{}) GetView { return a.withKey("endkey", key) }

// Key returns only rows matching key.
func (a GetView) Key(key interface{}) GetView { return a.withKey("key", key) }

// Reduce enables or disables the view's reduce function.
func (a GetView) Reduce(reduce bool) GetView { return a.withQuery("reduce", reduce) }

// Group groups reduced results by key.
func (a GetView) Group(group bool) GetView { return a.withQuery("group", group) }

// Limit limits the number of rows returned.
func (a GetView) Limit(limit uint64) GetView { return a.withQuery("limit", limit) }

// Skip skips the first skip rows.
func (a GetView) Skip(skip uint64) GetView { return a.withQuery("skip", skip) }

// Descending reverses the row order.
func (a GetView) Descending(descending bool) GetView {
	return a.withQuery("descending", descending)
}

// IncludeDocs includes each row's source document.
func (a GetView) IncludeDocs(includeDocs bool) GetView {
	return a.withQuery("include_docs", includeDocs)
}

// MakeRequest builds the request. Key parameters are JSON encoded.
func (a GetView) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	if a.ddoc == "" {
		return nil, missingArg("ddoc")
	}
	if a.view == "" {
		return nil, missingArg("view")
	}
	query := a.query
	for name, value := range a.keys {
		param, err := jsonParam(name, value)
		if err != nil {
			return nil, err
		}
		query = setQuery(query, name, param)
	}
	path := "/" + escapeDBName(a.db) + "/_design/" + url.PathEscape(a.ddoc) + "/_view/" + url.PathEscape(a.view)
	req, err := a.client.newRequest(http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().Query(query), nil
}

// TakeResponse interprets the server's response.
func (a GetView) TakeResponse(resp *chttp.Response) (*ViewResult, error) {
	switch resp.Status() {
	case http.StatusOK:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		return decodeViewResult(resp)
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
func (a GetView) Run(ctx context.Context) (*ViewResult, error) {
	return Run[*ViewResult](ctx, a.client, a)
}

func decodeViewResult(resp *chttp.Response) (*ViewResult, error) {
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	result := &ViewResult{}
	if n, ok := obj.OptUint64("total_rows"); ok {
		result.TotalRows = &n
	}
	if n, ok := obj.OptUint64("offset"); ok {
		result.Offset = &n
	}
	rows := obj.Objects("rows")
	result.Rows = make([]ViewRow, 0, len(rows))
	for _, row := range rows {
		r := ViewRow{
			Key:   row.Raw("key"),
			Value: row.Raw("value"),
			Doc:   row.OptRaw("doc"),
		}
		r.ID, _ = row.OptString("id")
		result.Rows = append(result.Rows, r)
	}
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	return result, nil
}
