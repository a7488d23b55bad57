package repository

import (
	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
)

type payTokenConfigRepo struct {
	tokens []*domain.PayToken
	index  map[domain.Address]*domain.PayToken
}

// NewPayTokenRepo serves the pay tokens listed in the paytokens config section
func NewPayTokenRepo(tokens []*domain.PayToken) domain.PayTokenRepo {
	index := make(map[domain.Address]*domain.PayToken, len(tokens))
	for _, t := range tokens {
		t.Address = t.Address.ToLower()
		index[t.Address] = t
	}
	return &payTokenConfigRepo{tokens: tokens, index: index}
}

func (r *payTokenConfigRepo) FindOne(c ctx.Ctx, address domain.Address) (*domain.PayToken, error) {
	if address.IsNative() {
		address = domain.NativeCurrency
	}
	t, ok := r.index[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	res := *t
	return &res, nil
}

func (r *payTokenConfigRepo) FindAll(c ctx.Ctx) ([]*domain.PayToken, error) {
	res := make([]*domain.PayToken, 0, len(r.tokens))
	for _, t := range r.tokens {
		token := *t
		res = append(res, &token)
	}
	return res, nil
}
