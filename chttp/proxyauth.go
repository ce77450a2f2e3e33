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

package chttp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strings"
)

// ProxyAuth provides CouchDB proxy authentication, where a trusted proxy
// asserts the user name and roles in request headers.
type ProxyAuth struct {
	Username string
	// Secret, if set, is used to sign the X-Auth-CouchDB-Token header. It
	// must match the server's couch_httpd_auth/secret.
	Secret string
	Roles  []string
	// Headers optionally renames the default headers. The keys are the
	// default header names, the values their replacements.
	Headers http.Header

	transport http.RoundTripper
}

var _ Authenticator = &ProxyAuth{}

func (a *ProxyAuth) header(header string) string {
	if h := a.Headers.Get(header); h != "" {
		return http.CanonicalHeaderKey(h)
	}
	return header
}

// Token returns the hex-encoded HMAC-SHA1 of the user name keyed by Secret.
func (a *ProxyAuth) Token() string {
	h := hmac.New(sha1.New, []byte(a.Secret))
	_, _ = h.Write([]byte(a.Username))
	return hex.EncodeToString(h.Sum(nil))
}

// RoundTrip fulfills the http.RoundTripper interface.
func (a *ProxyAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	if a.Secret != "" {
		// https://docs.couchdb.org/en/stable/config/auth.html#couch_httpd_auth/x_auth_token
		req.Header.Set(a.header("X-Auth-CouchDB-Token"), a.Token())
	}
	req.Header.Set(a.header("X-Auth-CouchDB-UserName"), a.Username)
	req.Header.Set(a.header("X-Auth-CouchDB-Roles"), strings.Join(a.Roles, ","))
	return a.transport.RoundTrip(req)
}

// Authenticate installs proxy auth headers on the client's transport.
func (a *ProxyAuth) Authenticate(c *Client) error {
	a.transport = wrapTransport(c)
	c.Transport = a
	return nil
}
