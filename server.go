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

// ServerInfo is the server's welcome message.
type ServerInfo struct {
	CouchDB string
	Version string
	// UUID is empty for servers that do not report it.
	UUID     string
	Vendor   string
	Features []string
}

// GetServer fetches the server's welcome message.
type GetServer struct {
	client *Client
}

var _ Action[*ServerInfo] = GetServer{}

// GetServer returns an action that fetches the server version and vendor.
func (c *Client) GetServer() GetServer {
	return GetServer{client: c}
}

// MakeRequest builds the request.
func (a GetServer) MakeRequest() (*chttp.Request, error) {
	req, err := a.client.newRequest(http.MethodGet, "/")
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON(), nil
}

// TakeResponse interprets the server's response.
func (a GetServer) TakeResponse(resp *chttp.Response) (*ServerInfo, error) {
	if resp.Status() != http.StatusOK {
		return nil, resp.UnexpectedStatus()
	}
	if err := resp.RequireContentTypeJSON(); err != nil {
		return nil, err
	}
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	info := &ServerInfo{
		CouchDB: obj.String("couchdb"),
		Version: obj.String("version"),
	}
	info.UUID, _ = obj.OptString("uuid")
	if vendor, ok := obj.OptObject("vendor"); ok {
		info.Vendor, _ = vendor.OptString("name")
	}
	if obj.Has("features") {
		info.Features = obj.Strings("features")
	}
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	return info, nil
}

// Run executes the action.
func (a GetServer) Run(ctx context.Context) (*ServerInfo, error) {
	return Run[*ServerInfo](ctx, a.client, a)
}
