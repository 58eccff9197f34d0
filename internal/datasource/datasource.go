// Package datasource abstracts where the raw order-line log is read from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw byte stream of the log. The caller closes it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
