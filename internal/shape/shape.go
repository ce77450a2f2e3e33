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

// Package shape extracts named, typed fields from JSON objects returned by a
// CouchDB server.
//
// A body is first decoded into a generic object. Fields are then read by name
// with typed accessors. Unknown fields are ignored. The first required field
// that is missing or has the wrong JSON type is recorded, and every later
// accessor on the same object tree becomes a no-op returning the zero value,
// so decoders read naturally and check Err once at the end.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldError describes a missing or mistyped field.
type FieldError struct {
	// Field is the dotted path of the offending field, e.g. "sizes.active"
	// or "rows[2].id". It is empty when the document itself is not an
	// object.
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

type state struct {
	err *FieldError
}

// Object is a decoded JSON object.
type Object struct {
	fields map[string]json.RawMessage
	prefix string
	state  *state
}

// Parse decodes data as a JSON object. Malformed JSON yields the error from
// encoding/json; well-formed JSON that is not an object yields a *FieldError.
func Parse(data []byte) (*Object, error) {
	if kind(data) != "object" {
		if !json.Valid(data) {
			var x interface{}
			return nil, json.Unmarshal(data, &x)
		}
		return nil, &FieldError{Reason: "expected JSON object, got " + kind(data)}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &Object{fields: fields, state: &state{}}, nil
}

// Err returns the first field error encountered on this object tree, or nil.
func (o *Object) Err() error {
	if o.state.err == nil {
		return nil
	}
	return o.state.err
}

// Has reports whether name is present and not null.
func (o *Object) Has(name string) bool {
	raw, ok := o.fields[name]
	return ok && kind(raw) != "null"
}

func (o *Object) fail(name, reason string) {
	if o.state.err != nil {
		return
	}
	o.state.err = &FieldError{Field: o.prefix + name, Reason: reason}
}

func (o *Object) failed() bool {
	return o.state.err != nil
}

// lookup returns the raw value of a required field, checking its JSON type.
func (o *Object) lookup(name string, kinds ...string) (json.RawMessage, bool) {
	if o.failed() {
		return nil, false
	}
	raw, ok := o.fields[name]
	if !ok {
		o.fail(name, "missing")
		return nil, false
	}
	got := kind(raw)
	for _, k := range kinds {
		if got == k {
			return raw, true
		}
	}
	o.fail(name, fmt.Sprintf("expected %s, got %s", kinds[0], got))
	return nil, false
}

// String returns the required string field name.
func (o *Object) String(name string) string {
	raw, ok := o.lookup(name, "string")
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		o.fail(name, err.Error())
	}
	return s
}

// OptString returns the string field name, if present and not null.
func (o *Object) OptString(name string) (string, bool) {
	if !o.Has(name) {
		return "", false
	}
	return o.String(name), !o.failed()
}

// Uint64 returns the required non-negative integer field name.
func (o *Object) Uint64(name string) uint64 {
	raw, ok := o.lookup(name, "number")
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		o.fail(name, "expected unsigned integer, got "+string(raw))
	}
	return n
}

// OptUint64 returns the non-negative integer field name, if present.
func (o *Object) OptUint64(name string) (uint64, bool) {
	if !o.Has(name) {
		return 0, false
	}
	return o.Uint64(name), !o.failed()
}

// Bool returns the required boolean field name.
func (o *Object) Bool(name string) bool {
	raw, ok := o.lookup(name, "boolean")
	if !ok {
		return false
	}
	return raw[0] == 't'
}

// OptBool returns the boolean field name, or false when absent.
func (o *Object) OptBool(name string) bool {
	if !o.Has(name) {
		return false
	}
	return o.Bool(name)
}

// Seq returns the required sequence field name. CouchDB 1.x reports
// sequences as integers, later versions as opaque strings; both are returned
// in string form.
func (o *Object) Seq(name string) string {
	raw, ok := o.lookup(name, "string", "number")
	if !ok {
		return ""
	}
	if raw[0] != '"' {
		return string(raw)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		o.fail(name, err.Error())
	}
	return s
}

// OptSeq returns the sequence field name, if present.
func (o *Object) OptSeq(name string) (string, bool) {
	if !o.Has(name) {
		return "", false
	}
	return o.Seq(name), !o.failed()
}

// Raw returns the required field name as raw JSON, whatever its type.
func (o *Object) Raw(name string) json.RawMessage {
	raw, ok := o.lookup(name, "string", "number", "boolean", "null", "object", "array")
	if !ok {
		return nil
	}
	return raw
}

// OptRaw returns the field name as raw JSON, or nil when absent or null.
func (o *Object) OptRaw(name string) json.RawMessage {
	if !o.Has(name) || o.failed() {
		return nil
	}
	return o.fields[name]
}

// Object returns the required nested object name. Errors on the nested
// object are reported on the parent.
func (o *Object) Object(name string) *Object {
	raw, ok := o.lookup(name, "object")
	if !ok {
		return o.empty(name)
	}
	return o.child(name, raw)
}

// OptObject returns the nested object name, if present.
func (o *Object) OptObject(name string) (*Object, bool) {
	if !o.Has(name) {
		return o.empty(name), false
	}
	return o.Object(name), !o.failed()
}

// Array returns the elements of the required array field name.
func (o *Object) Array(name string) []json.RawMessage {
	raw, ok := o.lookup(name, "array")
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		o.fail(name, err.Error())
	}
	return elems
}

// Objects returns the elements of the required array field name, each of
// which must be an object.
func (o *Object) Objects(name string) []*Object {
	elems := o.Array(name)
	objs := make([]*Object, 0, len(elems))
	for i, raw := range elems {
		elemName := fmt.Sprintf("%s[%d]", name, i)
		if kind(raw) != "object" {
			o.fail(elemName, "expected object, got "+kind(raw))
			return nil
		}
		objs = append(objs, o.child(elemName, raw))
	}
	return objs
}

// Strings returns the elements of the required array field name, each of
// which must be a string.
func (o *Object) Strings(name string) []string {
	elems := o.Array(name)
	strs := make([]string, 0, len(elems))
	for i, raw := range elems {
		var s string
		if kind(raw) != "string" || json.Unmarshal(raw, &s) != nil {
			o.fail(fmt.Sprintf("%s[%d]", name, i), "expected string, got "+kind(raw))
			return nil
		}
		strs = append(strs, s)
	}
	return strs
}

// Without re-encodes the object with the named fields removed.
func (o *Object) Without(names ...string) json.RawMessage {
	rest := make(map[string]json.RawMessage, len(o.fields))
	for k, v := range o.fields {
		rest[k] = v
	}
	for _, name := range names {
		delete(rest, name)
	}
	// Re-encoding values that already passed json.Unmarshal cannot fail.
	data, _ := json.Marshal(rest)
	return data
}

func (o *Object) child(name string, raw json.RawMessage) *Object {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		o.fail(name, err.Error())
	}
	return &Object{fields: fields, prefix: o.prefix + name + ".", state: o.state}
}

func (o *Object) empty(name string) *Object {
	return &Object{prefix: o.prefix + name + ".", state: o.state}
}

// kind names the JSON type of raw from its first significant byte.
func kind(raw []byte) string {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
