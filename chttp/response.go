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
	"encoding/json"
	"mime"
	"net/http"

	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/internal/shape"
)

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Request is the request that produced this response. It is nil for
	// responses constructed by hand.
	Request *Request
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.StatusCode
}

// ETag returns the unquoted value of the ETag header, or "" if absent.
func (r *Response) ETag() string {
	return UnquoteETag(r.Header.Get("ETag"))
}

// RequireContentTypeJSON returns an error unless the response declares an
// application/json body.
func (r *Response) RequireContentTypeJSON() error {
	ct := r.Header.Get(HeaderContentType)
	if ct == "" {
		return r.newError(KindUnexpectedContentType, errors.New("unexpected content type: missing Content-Type header"))
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return r.newError(KindUnexpectedContentType, errors.Wrap(err, "unexpected content type"))
	}
	if mediaType != typeJSON {
		return r.newError(KindUnexpectedContentType, errors.Errorf("unexpected content type: %s", mediaType))
	}
	return nil
}

// DecodeJSON unmarshals the body into v. Malformed JSON is a Decode error;
// well-formed JSON of the wrong shape is UnexpectedContent.
func (r *Response) DecodeJSON(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err == nil {
		return nil
	}
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		return r.UnexpectedContent(typeErr)
	}
	return r.newError(KindDecode, errors.Wrap(err, "decode response body"))
}

// Object parses the body as a JSON object for field-by-field decoding.
// Malformed JSON is a Decode error; valid JSON that is not an object is
// UnexpectedContent.
func (r *Response) Object() (*shape.Object, error) {
	obj, err := shape.Parse(r.Body)
	if err == nil {
		return obj, nil
	}
	if fieldErr, ok := err.(*shape.FieldError); ok {
		return nil, r.UnexpectedContent(fieldErr)
	}
	return nil, r.newError(KindDecode, errors.Wrap(err, "decode response body"))
}

// UnexpectedContent returns an UnexpectedContent error carrying the raw body.
func (r *Response) UnexpectedContent(cause error) error {
	return r.newError(KindUnexpectedContent, errors.Wrap(cause, "unexpected content"))
}

// UnexpectedStatus returns an UnexpectedHTTPStatus error for the response.
func (r *Response) UnexpectedStatus() error {
	e := r.newError(KindUnexpectedHTTPStatus, nil)
	e.Status = r.StatusCode
	return e
}

// Error classifies the response as kind. The server's JSON error body is
// attached when present and well-formed; a missing or malformed body never
// changes the classification.
func (r *Response) Error(kind Kind) error {
	e := r.newError(kind, nil)
	e.Status = r.StatusCode
	e.Response = r.errorResponse()
	return e
}

func (r *Response) newError(kind Kind, err error) *Error {
	return &Error{
		Kind:    kind,
		Body:    r.Body,
		Err:     err,
		request: r.Request,
		resp:    r,
	}
}

// errorResponse decodes a CouchDB {"error","reason"} body, or returns nil.
func (r *Response) errorResponse() *ErrorResponse {
	if len(r.Body) == 0 {
		return nil
	}
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get(HeaderContentType)); mediaType != typeJSON {
		return nil
	}
	obj, err := shape.Parse(r.Body)
	if err != nil {
		return nil
	}
	er := &ErrorResponse{
		Error: obj.String("error"),
	}
	er.Reason, _ = obj.OptString("reason")
	if obj.Err() != nil {
		return nil
	}
	return er
}
