/*
Package couchdb is a typed client for the CouchDB HTTP API.

Actions

Every operation is an action value: a request description paired with the
logic that interprets the server's response. Actions are built from a
*Client, refined with chainable setters, and executed with Run:

    client, _ := couchdb.New("http://localhost:5984/")
    doc, err := client.GetDocument("db", "docid").Conflicts(true).Run(ctx)

Setters return modified copies, so an action may be stored and run any number
of times. The two halves of an action are also available separately, through
MakeRequest and TakeResponse, for use with a custom Sender.

Revisions

Document revisions are parsed into Revision values. Writes that require a
revision take one explicitly and send it as an If-Match header, so a stale
revision is reported as a Conflict error rather than overwriting newer data.

Errors

All errors returned by actions are of type *Error. Use KindOf to classify an
error, for example to distinguish a missing document (KindNotFound) from an
edit conflict (KindConflict). The %+v verb prints the request and response
that produced the error.

Authentication

For most uses, include credentials in the DSN; this selects Cookie
authentication. To use another mechanism, call the client's Authenticate
method:

    client, _ := couchdb.New("http://localhost:5984/")
    err := client.Authenticate(couchdb.BasicAuth("bob", "abc123"))

*/
package couchdb
