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
	"github.com/couchaction/couchdb/chttp"
)

// BasicAuth returns an authenticator that sends HTTP Basic Auth credentials
// with every request.
//
//	err := client.Authenticate(couchdb.BasicAuth("bob", "abc123"))
func BasicAuth(username, password string) chttp.Authenticator {
	return &chttp.BasicAuth{
		Username: username,
		Password: password,
	}
}

// CookieAuth returns an authenticator that opens a session with the server
// through /_session, and renews it when it expires.
func CookieAuth(username, password string) chttp.Authenticator {
	return &chttp.CookieAuth{
		Username: username,
		Password: password,
	}
}

// ProxyAuth returns an authenticator for CouchDB proxy authentication.
// secret may be empty if the server does not require a signed token.
func ProxyAuth(username, secret string, roles []string) chttp.Authenticator {
	return &chttp.ProxyAuth{
		Username: username,
		Secret:   secret,
		Roles:    roles,
	}
}

// JWTAuth returns an authenticator that signs an HS256 bearer token with
// secret for every request.
func JWTAuth(username string, secret []byte, roles []string) chttp.Authenticator {
	return &chttp.JWTAuth{
		Username: username,
		Secret:   secret,
		Roles:    roles,
	}
}
