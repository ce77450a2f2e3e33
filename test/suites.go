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

package test

import (
	"net/http"
)

func registerSuiteCouch16() {
	RegisterSuite("1.", SuiteConfig{
		"GetAllDatabases.system":       []string{"_replicator", "_users"},
		"GetServer.features":           false,
		"PutDatabase/Recreate.status":  http.StatusPreconditionFailed,
		"PutDatabase/Partitioned.skip": true,
	})
}

func registerSuiteCouch2x() {
	RegisterSuite("2.", SuiteConfig{
		"GetServer.features":           true,
		"PutDatabase/Recreate.status":  http.StatusPreconditionFailed,
		"PutDatabase/Partitioned.skip": true,
	})
}

func registerSuiteCouch3x() {
	RegisterSuite("3.", SuiteConfig{
		"GetServer.features":          true,
		"PutDatabase/Recreate.status": http.StatusPreconditionFailed,
	})
}
