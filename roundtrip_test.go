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

package couchdb_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"gitlab.com/flimzy/testy"

	"github.com/couchaction/couchdb"
	"github.com/couchaction/couchdb/couchtest"
)

func newFake(t *testing.T) (*couchtest.FakeServer, *couchdb.Client) {
	t.Helper()
	s := couchtest.NewFakeServer()
	t.Cleanup(s.Close)
	client, err := couchdb.New(s.DSN())
	if err != nil {
		t.Fatal(err)
	}
	return s, client
}

func TestRoundTripDatabases(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()

	exists, err := client.HeadDatabase("widgets").Exists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("database exists before creation")
	}
	if _, err := client.PutDatabase("widgets").Shards(2).Run(ctx); err != nil {
		t.Fatal(err)
	}
	_, err = client.PutDatabase("widgets").Run(ctx)
	if couchdb.KindOf(err) != couchdb.KindDatabaseExists {
		t.Errorf("Unexpected kind: %s", couchdb.KindOf(err))
	}
	testy.StatusError(t, "Precondition Failed: The database could not be created, the file already exists.", http.StatusPreconditionFailed, err)
}

func TestRoundTripDatabaseInfo(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()
	for _, name := range []string{"b", "a/c"} {
		if _, err := client.PutDatabase(name).Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	names, err := client.GetAllDatabases().Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d := testy.DiffInterface([]string{"a/c", "b"}, names); d != nil {
		t.Error(d)
	}
	if _, err := client.PutDocument("a/c", "doc", map[string]int{"n": 1}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	db, err := client.GetDatabase("a/c").Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if db.Name != "a/c" || db.DocCount != 1 || db.UpdateSeq != "1-fake" {
		t.Errorf("Unexpected database info: %+v", db)
	}
	if _, err := client.DeleteDatabase("b").Run(ctx); err != nil {
		t.Fatal(err)
	}
	_, err = client.DeleteDatabase("b").Run(ctx)
	if couchdb.KindOf(err) != couchdb.KindNotFound {
		t.Errorf("Unexpected kind: %s", couchdb.KindOf(err))
	}
	_, err = client.GetDatabase("b").Run(ctx)
	testy.StatusError(t, "Not Found: Database does not exist.", http.StatusNotFound, err)
}

func TestRoundTripDocuments(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()
	if _, err := client.PutDatabase("db").Run(ctx); err != nil {
		t.Fatal(err)
	}

	rev1, err := client.PutDocument("db", "foo bar", map[string]string{"color": "red"}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rev1.UpdateNumber() != 1 {
		t.Errorf("Unexpected revision: %s", rev1)
	}

	doc, err := client.GetDocument("db", "foo bar").Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "foo bar" || doc.Rev != rev1 {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if d := testy.DiffJSON([]byte(`{"color":"red"}`), []byte(doc.Content)); d != nil {
		t.Error(d)
	}

	head, err := client.HeadDocument("db", "foo bar").Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if head.Rev != rev1 {
		t.Errorf("Unexpected HEAD revision: %s", head.Rev)
	}
	notModified, err := client.GetDocument("db", "foo bar").IfNoneMatch(rev1).Run(ctx)
	if err != nil || notModified != nil {
		t.Errorf("Expected not modified, got %v, %v", notModified, err)
	}

	rev2, err := client.PutDocument("db", "foo bar", map[string]string{"color": "blue"}).IfMatch(rev1).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	old, err := client.GetDocument("db", "foo bar").Rev(rev1).Run(ctx)
	if couchdb.KindOf(err) != couchdb.KindNotFound || old != nil {
		t.Errorf("Expected old revision to be gone, got %v, %v", old, err)
	}

	if _, err := client.DeleteDocument("db", "foo bar", rev2).Run(ctx); err != nil {
		t.Fatal(err)
	}
	_, err = client.GetDocument("db", "foo bar").Run(ctx)
	testy.StatusError(t, "Not Found: deleted", http.StatusNotFound, err)
}

func TestRoundTripConflict(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()
	if _, err := client.PutDatabase("db").Run(ctx); err != nil {
		t.Fatal(err)
	}
	rev1, err := client.PutDocument("db", "doc", map[string]int{"n": 1}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	stale := client.PutDocument("db", "doc", map[string]int{"n": 2}).IfMatch(rev1)
	rev2, err := stale.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !rev1.Less(rev2) {
		t.Errorf("Expected %s < %s", rev1, rev2)
	}

	_, err = client.DeleteDocument("db", "doc", rev1).Run(ctx)
	if couchdb.KindOf(err) != couchdb.KindConflict {
		t.Errorf("Unexpected kind: %s", couchdb.KindOf(err))
	}

	_, err = stale.Run(ctx)
	if couchdb.KindOf(err) != couchdb.KindConflict {
		t.Errorf("Unexpected kind: %s", couchdb.KindOf(err))
	}
	testy.StatusError(t, "Conflict: Document update conflict.", http.StatusConflict, err)
}

func TestRoundTripPost(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()
	if _, err := client.PutDatabase("db").Run(ctx); err != nil {
		t.Fatal(err)
	}
	result, err := client.PostToDatabase("db", map[string]string{"a": "b"}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.ID) != 32 || result.Rev.UpdateNumber() != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	batched, err := client.PostToDatabase("db", map[string]string{"_id": "later"}).Batch(true).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if batched.ID != "later" || !batched.Rev.IsEmpty() {
		t.Errorf("Unexpected batched result: %+v", batched)
	}
}

func TestRoundTripChanges(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()
	if _, err := client.PutDatabase("db").Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, err := client.PutDocument("db", id, map[string]string{}).Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	first, err := client.GetChanges("db").Limit(2).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Results) != 2 || first.Pending == nil || *first.Pending != 1 {
		t.Fatalf("Unexpected first page: %+v", first)
	}
	rest, err := client.GetChanges("db").Since(first.LastSeq).IncludeDocs(true).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest.Results) != 1 || rest.Results[0].ID != "c" || rest.Results[0].Doc == nil {
		t.Errorf("Unexpected second page: %+v", rest)
	}
	now, err := client.GetChanges("db").Since(couchdb.SinceNow).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(now.Results) != 0 || now.LastSeq != rest.LastSeq {
		t.Errorf("Unexpected changes since now: %+v", now)
	}
}

func TestRoundTripView(t *testing.T) {
	s, client := newFake(t)
	ctx := context.Background()
	if _, err := client.PutDatabase("db").Run(ctx); err != nil {
		t.Fatal(err)
	}
	for id, qty := range map[string]int{"apple": 3, "banana": 5, "cherry": 7} {
		if _, err := client.PutDocument("db", id, map[string]int{"qty": qty}).Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	s.RegisterView("db", "stock", "qty", func(doc map[string]interface{}, emit func(key, value interface{})) {
		emit(doc["_id"], doc["qty"])
	}, couchtest.ReduceSum)

	result, err := client.GetView("db", "_design/stock", "qty").Reduce(false).StartKey("b").IncludeDocs(true).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *result.TotalRows != 3 || *result.Offset != 1 || len(result.Rows) != 2 {
		t.Fatalf("Unexpected result: %+v", result)
	}
	var key string
	if err := result.Rows[0].ScanKey(&key); err != nil {
		t.Fatal(err)
	}
	var doc struct{ Qty int }
	if err := result.Rows[0].ScanDoc(&doc); err != nil {
		t.Fatal(err)
	}
	if key != "banana" || doc.Qty != 5 {
		t.Errorf("Unexpected first row: %s %+v", key, doc)
	}

	reduced, err := client.GetView("db", "stock", "qty").Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	if err := reduced.Rows[0].ScanValue(&sum); err != nil {
		t.Fatal(err)
	}
	if sum != 15 || reduced.TotalRows != nil {
		t.Errorf("Unexpected reduce: %v %+v", sum, reduced)
	}

	_, err = client.GetView("db", "stock", "nope").Run(ctx)
	testy.StatusError(t, "Not Found: missing_named_view", http.StatusNotFound, err)
}

func TestRoundTripServerAndSession(t *testing.T) {
	s, anon := newFake(t)
	ctx := context.Background()
	info, err := anon.GetServer().Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Version != couchtest.FakeVersion || info.Vendor != couchdb.VendorCouchDB {
		t.Errorf("Unexpected server info: %+v", info)
	}

	s.AddUser("bob", "abc123", "reader")
	session, err := anon.GetSession().Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if session.Name != "" || session.AuthMethod != "" {
		t.Errorf("Unexpected anonymous session: %+v", session)
	}

	dsn := strings.Replace(s.DSN(), "http://", "http://bob:abc123@", 1)
	client, err := couchdb.New(dsn)
	if err != nil {
		t.Fatal(err)
	}
	session, err = client.GetSession().Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d := testy.DiffInterface(&couchdb.Session{
		Name:       "bob",
		Roles:      []string{"reader"},
		AuthMethod: "cookie",
		Handlers:   []string{"cookie", "default"},
	}, session); d != nil {
		t.Error(d)
	}

	basic, err := couchdb.New(s.DSN())
	if err != nil {
		t.Fatal(err)
	}
	if err := basic.Authenticate(couchdb.BasicAuth("bob", "wrong")); err != nil {
		t.Fatal(err)
	}
	_, err = basic.GetSession().Run(ctx)
	testy.StatusError(t, "Unauthorized: Name or password is incorrect.", http.StatusUnauthorized, err)
}
