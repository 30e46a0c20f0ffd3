// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing labelled sentences and corpora. They are not
// intended for production usage.
package testutil
