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
	"github.com/pkg/errors"

	"github.com/couchaction/couchdb/chttp"
)

// Error is the error type returned by every operation. Use KindOf to
// classify it.
type Error = chttp.Error

// ErrorResponse is the decoded JSON body of a CouchDB error response.
type ErrorResponse = chttp.ErrorResponse

// Kind classifies an Error.
type Kind = chttp.Kind

// Error kinds.
const (
	KindNone                  = chttp.KindNone
	KindUnknown               = chttp.KindUnknown
	KindNotFound              = chttp.KindNotFound
	KindUnauthorized          = chttp.KindUnauthorized
	KindBadRequest            = chttp.KindBadRequest
	KindConflict              = chttp.KindConflict
	KindDatabaseExists        = chttp.KindDatabaseExists
	KindUnexpectedHTTPStatus  = chttp.KindUnexpectedHTTPStatus
	KindUnexpectedContent     = chttp.KindUnexpectedContent
	KindUnexpectedContentType = chttp.KindUnexpectedContentType
	KindTransport             = chttp.KindTransport
	KindEncode                = chttp.KindEncode
	KindDecode                = chttp.KindDecode
	KindBadArgument           = chttp.KindBadArgument
)

// KindOf returns the Kind of err, KindNone for nil, or KindUnknown for an
// error not produced by this package.
func KindOf(err error) Kind {
	return chttp.KindOf(err)
}

func missingArg(arg string) error {
	return &Error{Kind: KindBadArgument, Err: errors.Errorf("%s required", arg)}
}

func badArgument(format string, args ...interface{}) error {
	return &Error{Kind: KindBadArgument, Err: errors.Errorf(format, args...)}
}
