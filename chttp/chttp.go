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

// Package chttp provides a minimal HTTP layer for talking to a CouchDB server:
// a request builder, a buffered response reader, and the error taxonomy used
// to classify CouchDB responses.
package chttp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	typeJSON = "application/json"
)

// Client represents a client connection. It embeds an *http.Client.
type Client struct {
	// UserAgents is appended to set the User-Agent header. Typically it should
	// contain pairs of product name and version.
	UserAgents []string

	*http.Client

	rawDSN string
	dsn    *url.URL
	auth   Authenticator
	authMU sync.Mutex
}

// New returns a connection to a remote CouchDB server. If credentials are
// included in the URL, requests will be authenticated using Cookie Auth. To
// use HTTP BasicAuth or some other authentication mechanism, do not specify
// credentials in the URL, and instead call the Authenticate() method.
//
// A nil client uses a fresh *http.Client.
func New(client *http.Client, dsn string) (*Client, error) {
	dsnURL, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	user := dsnURL.User
	dsnURL.User = nil
	if client == nil {
		client = &http.Client{}
	}
	c := &Client{
		Client: client,
		dsn:    dsnURL,
		rawDSN: dsn,
	}
	if user != nil {
		password, _ := user.Password()
		if err := c.Authenticate(&CookieAuth{
			Username: user.Username(),
			Password: password,
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseDSN(dsn string) (*url.URL, error) {
	if dsn == "" {
		return nil, &Error{Kind: KindBadArgument, Err: errors.New("no URL specified")}
	}
	if !strings.HasPrefix(dsn, "http://") && !strings.HasPrefix(dsn, "https://") {
		dsn = "http://" + dsn
	}
	dsnURL, err := url.Parse(dsn)
	if err != nil {
		return nil, &Error{Kind: KindBadArgument, Err: err}
	}
	if dsnURL.Path == "" {
		dsnURL.Path = "/"
	}
	return dsnURL, nil
}

// DSN returns the unparsed DSN used to connect.
func (c *Client) DSN() string {
	return c.rawDSN
}

// URL returns a copy of the server's base URL, without credentials.
func (c *Client) URL() *url.URL {
	u := *c.dsn
	return &u
}

// Authenticate sets the authentication mechanism used for subsequent
// requests.
func (c *Client) Authenticate(a Authenticator) error {
	c.authMU.Lock()
	c.auth = a
	c.authMU.Unlock()
	return a.Authenticate(c)
}

// Authenticator returns the authenticator most recently passed to
// Authenticate, or nil.
func (c *Client) Authenticator() Authenticator {
	c.authMU.Lock()
	defer c.authMU.Unlock()
	return c.auth
}

// NewRequest returns a request for method against path, which is resolved
// relative to the server's base URL. path must already be escaped; use
// EncodeDocID for document IDs. A query string in path is preserved.
func (c *Client) NewRequest(method, path string) (*Request, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, &Error{Kind: KindBadArgument, Err: err}
	}
	u := *c.dsn
	rawPath := strings.TrimSuffix(c.dsn.EscapedPath(), "/") + "/" + strings.TrimPrefix(rel.EscapedPath(), "/")
	if u.Path, err = url.PathUnescape(rawPath); err != nil {
		return nil, &Error{Kind: KindBadArgument, Err: err}
	}
	u.RawPath = rawPath
	u.RawQuery = rel.RawQuery
	return NewRequest(method, &u), nil
}

// Do executes req and returns the fully-read response. Only failures to
// send the request or read the response are returned as errors; HTTP error
// statuses are left for the caller to classify.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.httpRequest(ctx)
	if err != nil {
		return nil, &Error{Kind: KindBadArgument, Err: err}
	}
	c.setUserAgent(httpReq)
	trace := ContextClientTrace(ctx)
	if trace != nil {
		trace.httpRequest(httpReq)
		trace.httpRequestBody(httpReq)
	}
	res, err := c.Client.Do(httpReq)
	if err != nil {
		// Authenticators report their own failures as *Error.
		var authErr *Error
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if trace != nil {
		trace.httpResponse(res)
		trace.httpResponseBody(res)
	}
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: errors.Wrap(err, "read response body")}
	}
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		Request:    req,
	}, nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if len(c.UserAgents) == 0 {
		return
	}
	req.Header.Set("User-Agent", strings.Join(c.UserAgents, " "))
}
