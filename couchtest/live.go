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

package couchtest

import (
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/ory/dockertest"
	"github.com/pkg/errors"
)

// Environment variables read by DSN and Docker.
const (
	EnvDSN    = "COUCHDB_TEST_DSN"
	EnvDocker = "COUCHDB_TEST_DOCKER"
)

// Admin credentials of servers started by Docker.
const (
	AdminUser     = "admin"
	AdminPassword = "abc123"
)

// DSN returns the DSN of a real CouchDB server for integration tests. It
// uses $COUCHDB_TEST_DSN when set, otherwise starts a container when
// $COUCHDB_TEST_DOCKER names a CouchDB image tag, and otherwise skips tb.
func DSN(tb testing.TB) string {
	tb.Helper()
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		return dsn
	}
	if version := os.Getenv(EnvDocker); version != "" {
		return Docker(tb, version)
	}
	tb.Skipf("%s and %s not set", EnvDSN, EnvDocker)
	return ""
}

// Docker starts couchdb:version in a container and returns an admin DSN
// once the server answers /_up. The container is removed when tb ends.
func Docker(tb testing.TB, version string) string {
	tb.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		tb.Fatal(err)
	}
	cont, err := pool.Run("couchdb", version, []string{
		"COUCHDB_USER=" + AdminUser,
		"COUCHDB_PASSWORD=" + AdminPassword,
	})
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		_ = pool.Purge(cont)
	})

	addr := cont.GetHostPort("5984/tcp")
	err = pool.Retry(func() error {
		req, err := http.NewRequest(http.MethodGet, "http://"+addr+"/_up", nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(AdminUser, AdminPassword)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		_ = res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return errors.Errorf("couchdb not ready: %s", res.Status)
		}
		return nil
	})
	if err != nil {
		tb.Fatal(err)
	}
	return fmt.Sprintf("http://%s:%s@%s/", AdminUser, AdminPassword, addr)
}
