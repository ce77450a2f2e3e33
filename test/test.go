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

// Package test holds the integration suite run against real CouchDB
// servers. Per-version expectations live in suite configurations keyed by
// server version.
package test

import (
	"strings"
)

// SuiteConfig maps test names to expected values, such as
// "PutDatabase/Partitioned.status".
type SuiteConfig map[string]interface{}

// Int returns the int stored under key, or 0.
func (c SuiteConfig) Int(key string) int {
	i, _ := c[key].(int)
	return i
}

// Bool returns the bool stored under key, or false.
func (c SuiteConfig) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Strings returns the []string stored under key, or nil.
func (c SuiteConfig) Strings(key string) []string {
	s, _ := c[key].([]string)
	return s
}

var suites = map[string]SuiteConfig{}

// RegisterSuite registers the configuration for servers whose version
// begins with prefix.
func RegisterSuite(prefix string, config SuiteConfig) {
	suites[prefix] = config
}

// SuiteFor returns the configuration registered for the longest prefix of
// version, or nil.
func SuiteFor(version string) SuiteConfig {
	var best string
	for prefix := range suites {
		if strings.HasPrefix(version, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return suites[best]
}

// RegisterCouchDBSuites registers the CouchDB related integration test suites.
func RegisterCouchDBSuites() {
	registerSuiteCouch16()
	registerSuiteCouch2x()
	registerSuiteCouch3x()
}
