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
	"io"
	"net/http"
	"strings"

	"github.com/couchaction/couchdb/chttp"
)

const typeJSON = "application/json"

type dummyTransport struct {
	response *http.Response
	err      error
}

var _ http.RoundTripper = &dummyTransport{}

func (t *dummyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close() // nolint: errcheck
		if _, err := io.ReadAll(req.Body); err != nil {
			return nil, err
		}
	}
	if t.err != nil {
		return nil, t.err
	}
	response := t.response
	response.Request = req
	return response, nil
}

type customTransport func(*http.Request) (*http.Response, error)

func (t customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t(req)
}

func newClient(rt http.RoundTripper) *Client {
	c, err := (&Couch{HTTPClient: &http.Client{Transport: rt}}).NewClient("http://example.com/")
	if err != nil {
		panic(err)
	}
	return c
}

func newTestClient(response *http.Response, err error) *Client {
	return newClient(&dummyTransport{response: response, err: err})
}

func newCustomClient(fn func(*http.Request) (*http.Response, error)) *Client {
	return newClient(customTransport(fn))
}

// Body returns str as a response body.
func Body(str string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(str))
}

func jsonResponse(status int, body string) *chttp.Response {
	return &chttp.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {typeJSON}},
		Body:       []byte(body),
	}
}

func textResponse(status int, body string) *chttp.Response {
	return &chttp.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte(body),
	}
}

// testClient is used by tests that only build requests.
var testClient = newTestClient(nil, nil)

// requestSummary is a comparable view of a built request.
type requestSummary struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

func summarize(req *chttp.Request) requestSummary {
	return requestSummary{
		Method: req.Method(),
		URL:    req.URL().String(),
		Header: req.Header(),
		Body:   string(req.Bytes()),
	}
}
