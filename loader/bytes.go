package loader

import (
	"context"
	"errors"
)

// Bytes loads a document already held in memory. Useful for embedded
// payloads and tests.
type Bytes struct {
	Filename string
	Data     []byte
}

var _ Loader = (*Bytes)(nil)

// NewBytes returns a loader for an in-memory document.
func NewBytes(filename string, data []byte) *Bytes {
	return &Bytes{Filename: filename, Data: data}
}

// Load returns the held filename and payload.
func (b *Bytes) Load(ctx context.Context) (string, []byte, error) {
	if b.Filename == "" {
		return "", nil, errors.New("bytes loader: filename required")
	}
	return b.Filename, b.Data, nil
}
