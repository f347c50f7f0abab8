// Package types holds the response bodies of the Books API: the JSON error
// envelope and the HTML pages inherited from the original archive.
package types
