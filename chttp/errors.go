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
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

// The closed set of error kinds.
const (
	// KindNone is returned by KindOf for a nil error.
	KindNone Kind = iota
	// KindUnknown is returned by KindOf for errors not produced by this
	// package.
	KindUnknown

	KindNotFound
	KindUnauthorized
	KindBadRequest
	KindConflict
	KindDatabaseExists
	KindUnexpectedHTTPStatus
	KindUnexpectedContent
	KindUnexpectedContentType
	KindTransport
	KindEncode
	KindDecode
	KindBadArgument
)

var kindNames = map[Kind]string{
	KindNone:                  "none",
	KindUnknown:               "unknown",
	KindNotFound:              "not found",
	KindUnauthorized:          "unauthorized",
	KindBadRequest:            "bad request",
	KindConflict:              "conflict",
	KindDatabaseExists:        "database exists",
	KindUnexpectedHTTPStatus:  "unexpected HTTP status",
	KindUnexpectedContent:     "unexpected content",
	KindUnexpectedContentType: "unexpected content type",
	KindTransport:             "transport",
	KindEncode:                "encode",
	KindDecode:                "decode",
	KindBadArgument:           "bad argument",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// fromServer reports whether errors of this kind are derived from the
// server's status code.
func (k Kind) fromServer() bool {
	switch k {
	case KindNotFound, KindUnauthorized, KindBadRequest, KindConflict, KindDatabaseExists:
		return true
	}
	return false
}

// ErrorResponse is the JSON body CouchDB sends with most error statuses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Error is the error type returned by every operation.
type Error struct {
	Kind Kind

	// Status is the HTTP status code, set for kinds derived from the
	// server's status code and for KindUnexpectedHTTPStatus.
	Status int

	// Response is the server's decoded error body, if it sent a well-formed
	// one.
	Response *ErrorResponse

	// Body is the raw response body, when the error arose from a response.
	Body []byte

	// Err is the underlying cause, if any.
	Err error

	request *Request
	resp    *Response
}

func (e *Error) Error() string {
	switch {
	case e.Kind.fromServer():
		text := http.StatusText(e.Status)
		if e.Response == nil || e.Response.Reason == "" {
			return text
		}
		if text == "" {
			return e.Response.Reason
		}
		return text + ": " + e.Response.Reason
	case e.Kind == KindUnexpectedHTTPStatus:
		return fmt.Sprintf("couchdb: unexpected HTTP status %d %s", e.Status, http.StatusText(e.Status))
	case e.Kind == KindTransport:
		return e.Err.Error()
	case e.Err == nil:
		return "couchdb: " + e.Kind.String()
	}
	return "couchdb: " + e.Err.Error()
}

// StatusCode returns the embedded HTTP status code, or 0.
func (e *Error) StatusCode() int {
	return e.Status
}

// Cause returns the underlying cause, for use with errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches target when it is an *Error of the same Kind with no status
// set, so that sentinel values such as &Error{Kind: KindNotFound} work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// Format implements fmt.Formatter. The %+v verb adds request and response
// details.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			_, _ = io.WriteString(f, e.Error())
			if e.request != nil {
				_, _ = fmt.Fprintf(f, ":\n    REQUEST: %s %s (%d bytes)", e.request.method, e.request.url, len(e.request.body))
			}
			if e.resp != nil {
				_, _ = fmt.Fprintf(f, "\n    RESPONSE: %d / %s (%d bytes)", e.resp.StatusCode, http.StatusText(e.resp.StatusCode), len(e.resp.Body))
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(f, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error())
	}
}

// KindOf returns the Kind of err: KindNone for nil, KindUnknown for errors
// that are not, and do not wrap, an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
