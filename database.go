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
	"regexp"

	"github.com/couchaction/couchdb/chttp"
)

var validDBName = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

// systemDBs may be used despite the leading underscore.
var systemDBs = map[string]bool{
	"_users":          true,
	"_replicator":     true,
	"_global_changes": true,
}

func validateDBName(name string) error {
	if name == "" {
		return missingArg("db")
	}
	if systemDBs[name] || validDBName.MatchString(name) {
		return nil
	}
	return badArgument("invalid database name %q", name)
}

func escapeDBName(name string) string {
	return url.PathEscape(name)
}

// Database is the metadata of a database.
type Database struct {
	Name        string
	DocCount    uint64
	DocDelCount uint64
	UpdateSeq   SequenceID
	// CommittedUpdateSeq is empty for servers that do not report it
	// (CouchDB 2.0 and later).
	CommittedUpdateSeq SequenceID
	// DataSize is the size of live data, in bytes.
	DataSize uint64
	// DiskSize is the size of the database file, in bytes, if reported.
	DiskSize       uint64
	PurgeSeq       SequenceID
	CompactRunning bool
}

func decodeDatabase(resp *chttp.Response) (*Database, error) {
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	db := &Database{
		Name:           obj.String("db_name"),
		DocCount:       obj.Uint64("doc_count"),
		DocDelCount:    obj.Uint64("doc_del_count"),
		UpdateSeq:      SequenceID(obj.Seq("update_seq")),
		PurgeSeq:       SequenceID(obj.Seq("purge_seq")),
		CompactRunning: obj.Bool("compact_running"),
	}
	if seq, ok := obj.OptSeq("committed_update_seq"); ok {
		db.CommittedUpdateSeq = SequenceID(seq)
	}
	sizes, hasSizes := obj.OptObject("sizes")
	switch {
	case obj.Has("data_size") || !hasSizes:
		db.DataSize = obj.Uint64("data_size")
	default:
		db.DataSize = sizes.Uint64("active")
	}
	if size, ok := obj.OptUint64("disk_size"); ok {
		db.DiskSize = size
	} else if hasSizes {
		db.DiskSize, _ = sizes.OptUint64("file")
	}
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	return db, nil
}

// GetDatabase fetches a database's metadata.
type GetDatabase struct {
	client *Client
	db     string
}

var _ Action[*Database] = GetDatabase{}

// GetDatabase returns an action that fetches the metadata of db.
func (c *Client) GetDatabase(db string) GetDatabase {
	return GetDatabase{client: c, db: db}
}

// MakeRequest builds the request.
func (a GetDatabase) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodGet, "/"+escapeDBName(a.db))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON(), nil
}

// TakeResponse interprets the server's response.
func (a GetDatabase) TakeResponse(resp *chttp.Response) (*Database, error) {
	switch resp.Status() {
	case http.StatusOK:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		return decodeDatabase(resp)
	case http.StatusNotFound:
		return nil, resp.Error(KindNotFound)
	}
	return nil, resp.UnexpectedStatus()
}

// Run executes the action.
func (a GetDatabase) Run(ctx context.Context) (*Database, error) {
	return Run[*Database](ctx, a.client, a)
}

// HeadDatabase checks that a database exists.
type HeadDatabase struct {
	client *Client
	db     string
}

var _ Action[struct{}] = HeadDatabase{}

// HeadDatabase returns an action that succeeds if db exists.
func (c *Client) HeadDatabase(db string) HeadDatabase {
	return HeadDatabase{client: c, db: db}
}

// MakeRequest builds the request.
func (a HeadDatabase) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	return a.client.newRequest(http.MethodHead, "/"+escapeDBName(a.db))
}

// TakeResponse interprets the server's response. A 404 response to a HEAD
// request has no body, so the error carries no ErrorResponse.
func (a HeadDatabase) TakeResponse(resp *chttp.Response) (struct{}, error) {
	switch resp.Status() {
	case http.StatusOK:
		return struct{}{}, nil
	case http.StatusNotFound:
		return struct{}{}, resp.Error(KindNotFound)
	}
	return struct{}{}, resp.UnexpectedStatus()
}

// Run executes the action.
func (a HeadDatabase) Run(ctx context.Context) (struct{}, error) {
	return Run[struct{}](ctx, a.client, a)
}

// Exists runs the action, reporting false rather than an error when the
// database does not exist.
func (a HeadDatabase) Exists(ctx context.Context) (bool, error) {
	_, err := a.Run(ctx)
	switch KindOf(err) {
	case KindNone:
		return true, nil
	case KindNotFound:
		return false, nil
	}
	return false, err
}

// PutDatabase creates a database.
type PutDatabase struct {
	client *Client
	db     string
	query  url.Values
}

var _ Action[struct{}] = PutDatabase{}

// PutDatabase returns an action that creates db.
func (c *Client) PutDatabase(db string) PutDatabase {
	return PutDatabase{client: c, db: db}
}

// Shards sets the number of shards (q) for the new database. Only
// clustered servers honor it.
func (a PutDatabase) Shards(q int) PutDatabase {
	return a.withQuery("q", q)
}

// Partitioned creates a partitioned database (CouchDB 3.0+).
func (a PutDatabase) Partitioned(partitioned bool) PutDatabase {
	return a.withQuery("partitioned", partitioned)
}

func (a PutDatabase) withQuery(key string, value interface{}) PutDatabase {
	a.query = setQuery(a.query, key, value)
	return a
}

// MakeRequest builds the request.
func (a PutDatabase) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodPut, "/"+escapeDBName(a.db))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON().Query(a.query), nil
}

// TakeResponse interprets the server's response.
func (a PutDatabase) TakeResponse(resp *chttp.Response) (struct{}, error) {
	switch resp.Status() {
	case http.StatusCreated:
		return struct{}{}, nil
	case http.StatusPreconditionFailed:
		return struct{}{}, resp.Error(KindDatabaseExists)
	}
	return struct{}{}, resp.UnexpectedStatus()
}

// Run executes the action.
func (a PutDatabase) Run(ctx context.Context) (struct{}, error) {
	return Run[struct{}](ctx, a.client, a)
}

// DeleteDatabase deletes a database.
type DeleteDatabase struct {
	client *Client
	db     string
}

var _ Action[struct{}] = DeleteDatabase{}

// DeleteDatabase returns an action that deletes db.
func (c *Client) DeleteDatabase(db string) DeleteDatabase {
	return DeleteDatabase{client: c, db: db}
}

// MakeRequest builds the request.
func (a DeleteDatabase) MakeRequest() (*chttp.Request, error) {
	if err := validateDBName(a.db); err != nil {
		return nil, err
	}
	req, err := a.client.newRequest(http.MethodDelete, "/"+escapeDBName(a.db))
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON(), nil
}

// TakeResponse interprets the server's response.
func (a DeleteDatabase) TakeResponse(resp *chttp.Response) (struct{}, error) {
	switch resp.Status() {
	case http.StatusOK:
		return struct{}{}, nil
	case http.StatusNotFound:
		return struct{}{}, resp.Error(KindNotFound)
	}
	return struct{}{}, resp.UnexpectedStatus()
}

// Run executes the action.
func (a DeleteDatabase) Run(ctx context.Context) (struct{}, error) {
	return Run[struct{}](ctx, a.client, a)
}

// GetAllDatabases lists the databases on the server.
type GetAllDatabases struct {
	client *Client
}

var _ Action[[]string] = GetAllDatabases{}

// GetAllDatabases returns an action that lists all databases.
func (c *Client) GetAllDatabases() GetAllDatabases {
	return GetAllDatabases{client: c}
}

// MakeRequest builds the request.
func (a GetAllDatabases) MakeRequest() (*chttp.Request, error) {
	req, err := a.client.newRequest(http.MethodGet, "/_all_dbs")
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON(), nil
}

// TakeResponse interprets the server's response.
func (a GetAllDatabases) TakeResponse(resp *chttp.Response) ([]string, error) {
	switch resp.Status() {
	case http.StatusOK:
		if err := resp.RequireContentTypeJSON(); err != nil {
			return nil, err
		}
		var dbs []string
		if err := resp.DecodeJSON(&dbs); err != nil {
			return nil, err
		}
		return dbs, nil
	case http.StatusUnauthorized:
		return nil, resp.Error(KindUnauthorized)
	}
	return nil, resp.UnexpectedStatus()
}

// Run executes the action.
func (a GetAllDatabases) Run(ctx context.Context) ([]string, error) {
	return Run[[]string](ctx, a.client, a)
}
