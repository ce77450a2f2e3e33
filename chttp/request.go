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
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Header names used by CouchDB requests.
const (
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderIfMatch     = "If-Match"
	HeaderIfNoneMatch = "If-None-Match"
	HeaderFullCommit  = "X-Couch-Full-Commit"
)

// Request describes exactly one HTTP call. Configuration methods never
// modify their receiver; each returns an updated copy, so a partially built
// request may be shared and extended independently.
type Request struct {
	method string
	url    *url.URL
	header http.Header
	body   []byte
}

// NewRequest returns a request for method against u, with no headers set.
func NewRequest(method string, u *url.URL) *Request {
	uCopy := *u
	return &Request{
		method: method,
		url:    &uCopy,
		header: http.Header{},
	}
}

func (r *Request) clone() *Request {
	u := *r.url
	return &Request{
		method: r.method,
		url:    &u,
		header: r.header.Clone(),
		body:   r.body,
	}
}

// Method returns the request method.
func (r *Request) Method() string { return r.method }

// URL returns a copy of the request URL.
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// Header returns a copy of the request headers.
func (r *Request) Header() http.Header { return r.header.Clone() }

// Bytes returns the request body, or nil if none was attached.
func (r *Request) Bytes() []byte { return r.body }

// SetHeader sets key to value. An empty value removes the header.
func (r *Request) SetHeader(key, value string) *Request {
	c := r.clone()
	if value == "" {
		c.header.Del(key)
		return c
	}
	c.header.Set(key, value)
	return c
}

// AcceptJSON sets "Accept: application/json".
func (r *Request) AcceptJSON() *Request {
	return r.SetHeader(HeaderAccept, typeJSON)
}

// ContentTypeJSON sets "Content-Type: application/json".
func (r *Request) ContentTypeJSON() *Request {
	return r.SetHeader(HeaderContentType, typeJSON)
}

// IfMatch sets the If-Match header to etag, quoting it if necessary. An
// empty etag leaves the request unchanged.
func (r *Request) IfMatch(etag string) *Request {
	if etag == "" {
		return r
	}
	return r.SetHeader(HeaderIfMatch, quoteETag(etag))
}

// IfNoneMatch sets the If-None-Match header to etag, quoting it if
// necessary. An empty etag leaves the request unchanged.
func (r *Request) IfNoneMatch(etag string) *Request {
	if etag == "" {
		return r
	}
	return r.SetHeader(HeaderIfNoneMatch, quoteETag(etag))
}

// FullCommit sets "X-Couch-Full-Commit: true" when fullCommit is true.
func (r *Request) FullCommit(fullCommit bool) *Request {
	if !fullCommit {
		return r
	}
	return r.SetHeader(HeaderFullCommit, "true")
}

// Body attaches a copy of body to the request.
func (r *Request) Body(body []byte) *Request {
	c := r.clone()
	if body != nil {
		c.body = append(make([]byte, 0, len(body)), body...)
	} else {
		c.body = nil
	}
	return c
}

// Query appends query to the URL's query string. No merging takes place.
func (r *Request) Query(query url.Values) *Request {
	if len(query) == 0 {
		return r
	}
	c := r.clone()
	q := c.url.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	c.url.RawQuery = q.Encode()
	return c
}

func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var req *http.Request
	var err error
	if r.body != nil {
		req, err = http.NewRequestWithContext(ctx, r.method, r.url.String(), bytes.NewReader(r.body))
	} else {
		req, err = http.NewRequestWithContext(ctx, r.method, r.url.String(), nil)
	}
	if err != nil {
		return nil, err
	}
	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

// quoteETag wraps etag in double quotes unless it is already quoted or is a
// weak tag.
func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}

// UnquoteETag strips the weak prefix and surrounding quotes from an entity
// tag, as found in an ETag response header.
func UnquoteETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	return strings.Trim(etag, `"`)
}
