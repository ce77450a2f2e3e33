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
	"context"

	"github.com/couchaction/couchdb/chttp"
)

// Sender executes a single request. *chttp.Client and *Client implement it.
type Sender interface {
	Do(ctx context.Context, req *chttp.Request) (*chttp.Response, error)
}

// Action is one server operation. MakeRequest builds the HTTP request from
// the action's parameters, and fails only for invalid parameters.
// TakeResponse interprets any response the server may send, mapping
// statuses the operation does not expect to KindUnexpectedHTTPStatus.
//
// Actions are values. Configuration methods return modified copies, so an
// action may be run again, or used as a template for others.
type Action[T any] interface {
	MakeRequest() (*chttp.Request, error)
	TakeResponse(*chttp.Response) (T, error)
}

// Run executes a with s, and returns the typed result.
func Run[T any](ctx context.Context, s Sender, a Action[T]) (T, error) {
	var zero T
	req, err := a.MakeRequest()
	if err != nil {
		return zero, err
	}
	resp, err := s.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	return a.TakeResponse(resp)
}
