package repository

import (
	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/service/query"
)

type mongoTransactor struct {
	q query.Mongo
}

// NewMongoTransactor runs market operations in a mongo session so order and event writes commit together
func NewMongoTransactor(q query.Mongo) ledger.Transactor {
	return &mongoTransactor{q}
}

func (t *mongoTransactor) RunInTransaction(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	return t.q.RunWithTransaction(c, fn)
}
