package repository

import (
	"context"

	"viewengine/internal/query"
)

// RecordExecutor runs compiled requests against a record source.
type RecordExecutor interface {
	Execute(ctx context.Context, req query.Request) (query.Result, error)
	Count(ctx context.Context, d query.Descriptor, search string) (int, error)
}
