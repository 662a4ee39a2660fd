package loader

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// Object loads a document from an S3-compatible object store. The object
// is fetched at submission time, so the loader stays cheap to construct.
type Object struct {
	client *minio.Client
	bucket string
	key    string
}

var _ Loader = (*Object)(nil)

// NewObject returns a loader for bucket/key using the given client.
func NewObject(client *minio.Client, bucket, key string) *Object {
	return &Object{client: client, bucket: bucket, key: key}
}

// Load fetches the object and returns its base name and contents.
func (o *Object) Load(ctx context.Context) (string, []byte, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s/%s: %w", o.bucket, o.key, err)
	}
	defer obj.Close()

	// GetObject defers the request; failures surface on first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s/%s: %w", o.bucket, o.key, err)
	}
	return path.Base(o.key), data, nil
}
