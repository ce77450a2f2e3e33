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

// Session describes the user the server associates with the client's
// credentials.
type Session struct {
	// Name is empty for an anonymous session.
	Name  string
	Roles []string
	// AuthMethod is the handler that authenticated the request, such as
	// "cookie" or "default". It is empty for an anonymous session.
	AuthMethod string
	// Handlers lists the authentication handlers the server accepts.
	Handlers []string
}

// GetSession fetches information about the current session.
type GetSession struct {
	client *Client
}

var _ Action[*Session] = GetSession{}

// GetSession returns an action that fetches the current session.
func (c *Client) GetSession() GetSession {
	return GetSession{client: c}
}

// MakeRequest builds the request.
func (a GetSession) MakeRequest() (*chttp.Request, error) {
	req, err := a.client.newRequest(http.MethodGet, "/_session")
	if err != nil {
		return nil, err
	}
	return req.AcceptJSON(), nil
}

// TakeResponse interprets the server's response.
func (a GetSession) TakeResponse(resp *chttp.Response) (*Session, error) {
	switch resp.Status() {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, resp.Error(KindUnauthorized)
	default:
		return nil, resp.UnexpectedStatus()
	}
	if err := resp.RequireContentTypeJSON(); err != nil {
		return nil, err
	}
	obj, err := resp.Object()
	if err != nil {
		return nil, err
	}
	userCtx := obj.Object("userCtx")
	session := &Session{
		Roles: userCtx.Strings("roles"),
	}
	session.Name, _ = userCtx.OptString("name")
	if info, ok := obj.OptObject("info"); ok {
		session.AuthMethod, _ = info.OptString("authenticated")
		if info.Has("authentication_handlers") {
			session.Handlers = info.Strings("authentication_handlers")
		}
	}
	if err := obj.Err(); err != nil {
		return nil, resp.UnexpectedContent(err)
	}
	return session, nil
}

// Run executes the action.
func (a GetSession) Run(ctx context.Context) (*Session, error) {
	return Run[*Session](ctx, a.client, a)
}
