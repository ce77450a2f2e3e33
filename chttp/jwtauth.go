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
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DefaultJWTLifetime is the token lifetime used when JWTAuth.Lifetime is
// zero.
const DefaultJWTLifetime = 5 * time.Minute

// JWTAuth provides CouchDB JWT authentication (CouchDB 3.1+). Each request
// carries a freshly signed HS256 bearer token.
type JWTAuth struct {
	Username string
	Roles    []string
	// Secret is the HMAC key configured in the server's [jwt_keys] section.
	Secret []byte
	// KeyID, if set, is sent as the token's "kid" header.
	KeyID    string
	Lifetime time.Duration

	// now is used in tests.
	now       func() time.Time
	transport http.RoundTripper
}

var _ Authenticator = &JWTAuth{}

type couchClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"_couchdb.roles,omitempty"`
}

// Token returns a signed token for the configured user.
func (a *JWTAuth) Token() (string, error) {
	if len(a.Secret) == 0 {
		return "", &Error{Kind: KindBadArgument, Err: errors.New("jwt: secret required")}
	}
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	lifetime := a.Lifetime
	if lifetime == 0 {
		lifetime = DefaultJWTLifetime
	}
	issued := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, couchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(lifetime)),
		},
		Roles: a.Roles,
	})
	if a.KeyID != "" {
		token.Header["kid"] = a.KeyID
	}
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		return "", &Error{Kind: KindEncode, Err: errors.Wrap(err, "jwt")}
	}
	return signed, nil
}

// RoundTrip fulfills the http.RoundTripper interface.
func (a *JWTAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := a.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return a.transport.RoundTrip(req)
}

// Authenticate installs JWT bearer tokens on the client's transport.
func (a *JWTAuth) Authenticate(c *Client) error {
	if len(a.Secret) == 0 {
		return &Error{Kind: KindBadArgument, Err: errors.New("jwt: secret required")}
	}
	a.transport = wrapTransport(c)
	c.Transport = a
	return nil
}
