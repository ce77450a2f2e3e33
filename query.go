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
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// setQuery returns a copy of q with key set to value. Actions share their
// query maps with the copies their setters return, so q is never modified.
func setQuery(q url.Values, key string, value interface{}) url.Values {
	c := cloneQuery(q)
	c.Set(key, fmt.Sprint(value))
	return c
}

// withoutQuery returns q without key, copying q if it has key.
func withoutQuery(q url.Values, key string) url.Values {
	if _, ok := q[key]; !ok {
		return q
	}
	c := cloneQuery(q)
	c.Del(key)
	return c
}

func cloneQuery(q url.Values) url.Values {
	c := make(url.Values, len(q)+1)
	for k, v := range q {
		c[k] = append([]string(nil), v...)
	}
	return c
}

// jsonParam encodes a view key for use as a query parameter.
func jsonParam(key string, value interface{}) (string, error) {
	switch t := value.(type) {
	case json.RawMessage:
		if !json.Valid(t) {
			return "", &Error{Kind: KindEncode, Err: errors.Errorf("%s: invalid JSON", key)}
		}
		return string(t), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", &Error{Kind: KindEncode, Err: errors.Wrap(err, key)}
	}
	return string(data), nil
}
