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
	"fmt"
	"net/http"

	"github.com/couchaction/couchdb/chttp"
)

// Couch holds settings shared by the clients it creates.
type Couch struct {
	// HTTPClient is used for all requests. If nil, a new *http.Client is
	// created for each client. Authenticators install themselves on the
	// client's Transport and Jar, so a shared HTTPClient is shared auth
	// state as well.
	HTTPClient *http.Client

	// UserAgent, if set, is prepended to the User-Agent header.
	UserAgent string
}

// Client is a connection to a CouchDB server. It is safe for concurrent
// use. Operations are created with the methods of Client and executed
// with their Run method.
type Client struct {
	*chttp.Client
}

var _ Sender = &Client{}

// NewClient establishes a new connection to a CouchDB server instance. If
// auth credentials are included in the URL, they are used to authenticate
// using CookieAuth. If you wish to use a different auth mechanism, do not
// specify credentials here, and instead call Authenticate() later.
func (d *Couch) NewClient(dsn string) (*Client, error) {
	chttpClient, err := chttp.New(d.HTTPClient, dsn)
	if err != nil {
		return nil, err
	}
	chttpClient.UserAgents = []string{
		fmt.Sprintf("couchaction/%s", Version),
	}
	if d.UserAgent != "" {
		chttpClient.UserAgents = append([]string{d.UserAgent}, chttpClient.UserAgents...)
	}
	return &Client{Client: chttpClient}, nil
}

// New is shorthand for (&Couch{}).NewClient(dsn).
func New(dsn string) (*Client, error) {
	return (&Couch{}).NewClient(dsn)
}

func (c *Client) newRequest(method, path string) (*chttp.Request, error) {
	if c == nil || c.Client == nil {
		return nil, missingArg("client")
	}
	return c.NewRequest(method, path)
}
