// Package query wraps the mongo driver with the table naming, logging and error
// conventions used by the repositories.
package query

import (
	"errors"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = errors.New("duplicate key")
)

// Index is a single or compound index, keys prefixed with "-" are descending
type Index struct {
	Keys   []string
	Unique bool
}

// Mongo abstract the mongo layer.
type Mongo interface {
	// Insert inserts new documents to the table, ErrDuplicateKey on a unique index violation
	Insert(context ctx.Ctx, table domain.Table, docs ...interface{}) error

	// FindOne decodes the first match into result, ErrNotFound if nothing matches
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	Count(context ctx.Ctx, table domain.Table, selector interface{}) (n int, err error)

	// Upsert replaces the document matching selector, inserting it when missing
	Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Remove deletes the document matching selector, removing nothing is not an error
	Remove(context ctx.Ctx, table domain.Table, selector interface{}) error

	// Search sorts by every field of sortFields (ex "endTime" ascending, "-endTime" descending).
	// A zero limit returns every match.
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sortFields []string, query, results interface{}) error

	// Increment increases field by inc and decodes the updated document into result.
	// A missing document is created.
	Increment(context ctx.Ctx, table domain.Table, selector, result interface{}, field string, inc interface{}) error

	// EnsureIndexes creates indexes that do not exist yet
	EnsureIndexes(context ctx.Ctx, table domain.Table, indexes ...Index) error

	// RunWithTransaction runs run inside a mongo session transaction
	RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error
}
