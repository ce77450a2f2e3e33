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
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	prefixDesign = "_design/"
	prefixLocal  = "_local/"
)

// EncodeDocID encodes a document ID according to CouchDB's path encoding rules.
//
// In particular:
// -  '_design/' and '_local/' prefixes are unaltered.
// - The rest of the docID is Query-URL encoded (despite being part of the path)
func EncodeDocID(docID string) string {
	for _, prefix := range []string{prefixDesign, prefixLocal} {
		if strings.HasPrefix(docID, prefix) {
			return prefix + url.QueryEscape(strings.TrimPrefix(docID, prefix))
		}
	}
	return url.QueryEscape(docID)
}

// EncodeJSON returns the JSON encoding of i. A string, []byte or
// json.RawMessage is taken to be JSON already and is checked but not
// re-encoded.
func EncodeJSON(i interface{}) ([]byte, error) {
	var data []byte
	switch t := i.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	default:
		var err error
		if data, err = json.Marshal(i); err != nil {
			return nil, &Error{Kind: KindEncode, Err: errors.Wrap(err, "encode request body")}
		}
		return data, nil
	}
	if !json.Valid(data) {
		return nil, &Error{Kind: KindEncode, Err: errors.New("encode request body: invalid JSON")}
	}
	return data, nil
}
