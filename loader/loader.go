// Package loader produces the (filename, payload) pairs submitted to the
// OCR service. Implementations cover local files, in-memory bytes, and
// S3-compatible object storage.
package loader

import "context"

// Loader supplies a document for submission. Load is called once per
// submission, before any network request is made.
type Loader interface {
	Load(ctx context.Context) (filename string, data []byte, err error)
}
