package repository

import (
	"math/big"
	"sync"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/royalty"
)

// ReceiveHook runs before a native transfer credits account. A non nil error rejects the payment.
type ReceiveHook func(ctx ctx.Ctx, from domain.Address, amount *big.Int) error

type nftKey struct {
	contract domain.Address
	tokenId  domain.TokenId
}

type operatorKey struct {
	contract domain.Address
	owner    domain.Address
	operator domain.Address
}

type balanceKey struct {
	token   domain.Address
	account domain.Address
}

type allowanceKey struct {
	token   domain.Address
	owner   domain.Address
	spender domain.Address
}

type collection struct {
	interfaces map[string]bool
	royalty    royalty.Info
}

type state struct {
	collections map[domain.Address]*collection
	owners      map[nftKey]domain.Address
	approvals   map[nftKey]domain.Address
	operators   map[operatorKey]bool
	balances    map[balanceKey]*big.Int
	allowances  map[allowanceKey]*big.Int
}

func newState() *state {
	return &state{
		collections: make(map[domain.Address]*collection),
		owners:      make(map[nftKey]domain.Address),
		approvals:   make(map[nftKey]domain.Address),
		operators:   make(map[operatorKey]bool),
		balances:    make(map[balanceKey]*big.Int),
		allowances:  make(map[allowanceKey]*big.Int),
	}
}

func (s *state) clone() *state {
	res := newState()
	for k, v := range s.collections {
		c := &collection{interfaces: make(map[string]bool, len(v.interfaces)), royalty: v.royalty}
		for id, ok := range v.interfaces {
			c.interfaces[id] = ok
		}
		res.collections[k] = c
	}
	for k, v := range s.owners {
		res.owners[k] = v
	}
	for k, v := range s.approvals {
		res.approvals[k] = v
	}
	for k, v := range s.operators {
		res.operators[k] = v
	}
	for k, v := range s.balances {
		res.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range s.allowances {
		res.allowances[k] = new(big.Int).Set(v)
	}
	return res
}

// MemoryLedger simulates the token contracts the market settles against.
// Writers are expected to be serialized by the caller, RunInTransaction restores a
// snapshot taken at its start so concurrent writers would lose updates.
type MemoryLedger struct {
	mu      sync.RWMutex
	st      *state
	hooks   map[domain.Address]ReceiveHook
	wrapper domain.Address
}

// NewMemoryLedger creates an empty ledger whose native wrapper token lives at wrapper
func NewMemoryLedger(wrapper domain.Address) *MemoryLedger {
	return &MemoryLedger{
		st:      newState(),
		hooks:   make(map[domain.Address]ReceiveHook),
		wrapper: wrapper.ToLower(),
	}
}

func (l *MemoryLedger) Registry() ledger.AssetRegistry { return (*registry)(l) }
func (l *MemoryLedger) Native() ledger.NativeLedger    { return (*native)(l) }
func (l *MemoryLedger) Tokens() ledger.TokenLedger     { return (*tokens)(l) }
func (l *MemoryLedger) Wrapper() ledger.NativeWrapper  { return (*wrapper)(l) }

// Royalty exposes the simulated royalty schemas to the royalty strategy
func (l *MemoryLedger) Royalty() royalty.Reader { return (*royaltyReader)(l) }

func (l *MemoryLedger) RunInTransaction(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	l.mu.RLock()
	snapshot := l.st.clone()
	l.mu.RUnlock()

	if err := fn(c); err != nil {
		l.mu.Lock()
		l.st = snapshot
		l.mu.Unlock()
		c.WithField("err", err).Warn("ledger transaction reverted")
		return err
	}
	return nil
}

// SetReceiveHook installs hook for native payments to account, nil removes it
func (l *MemoryLedger) SetReceiveHook(account domain.Address, hook ReceiveHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hook == nil {
		delete(l.hooks, account.ToLower())
		return
	}
	l.hooks[account.ToLower()] = hook
}

// DeployCollection registers an ERC721 contract answering the given interface ids
func (l *MemoryLedger) DeployCollection(contract domain.Address, interfaceIds ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &collection{interfaces: map[string]bool{ledger.InterfaceIdERC165: true}, royalty: *royalty.None()}
	for _, id := range interfaceIds {
		c.interfaces[id] = true
	}
	l.st.collections[contract.ToLower()] = c
}

// SetRoyalty configures what the collection reports through schema
func (l *MemoryLedger) SetRoyalty(contract domain.Address, schema royalty.Schema, recipient domain.Address, bps uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.st.collections[contract.ToLower()]
	if !ok {
		return ledger.ErrUnknownContract
	}
	switch schema {
	case royalty.SchemaModern:
		c.interfaces[ledger.InterfaceIdERC2981] = true
	case royalty.SchemaLegacyV2:
		c.interfaces[ledger.InterfaceIdRoyaltyV2] = true
	case royalty.SchemaLegacyV1:
		c.interfaces[ledger.InterfaceIdRoyaltyV1] = true
	}
	c.royalty = royalty.Info{Schema: schema, Recipient: recipient.ToLower(), Bps: bps}
	return nil
}

// Mint creates tokenId owned by to
func (l *MemoryLedger) Mint(contract domain.Address, tokenId domain.TokenId, to domain.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.st.collections[contract.ToLower()]; !ok {
		return ledger.ErrUnknownContract
	}
	if to.IsEmpty() {
		return ledger.ErrTransferToZero
	}
	l.st.owners[nftKey{contract.ToLower(), tokenId}] = to.ToLower()
	return nil
}

// Approve is ERC721 approve issued by the token owner or an approved operator
func (l *MemoryLedger) Approve(contract domain.Address, caller domain.Address, to domain.Address, tokenId domain.TokenId) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := nftKey{contract.ToLower(), tokenId}
	owner, ok := l.st.owners[k]
	if !ok {
		return ledger.ErrNonexistentToken
	}
	if !owner.Equals(caller) && !l.st.operators[operatorKey{k.contract, owner, caller.ToLower()}] {
		return ledger.ErrNotOwnerNorApproved
	}
	l.st.approvals[k] = to.ToLower()
	return nil
}

func (l *MemoryLedger) SetApprovalForAll(contract domain.Address, owner domain.Address, operator domain.Address, approved bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.st.collections[contract.ToLower()]; !ok {
		return ledger.ErrUnknownContract
	}
	l.st.operators[operatorKey{contract.ToLower(), owner.ToLower(), operator.ToLower()}] = approved
	return nil
}

// Deal credits amount out of thin air. Use domain.NativeCurrency as token for the native coin.
func (l *MemoryLedger) Deal(token domain.Address, account domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(balanceKey{normalizeToken(token), account.ToLower()}, amount)
}

func normalizeToken(token domain.Address) domain.Address {
	if token.IsNative() {
		return domain.NativeCurrency
	}
	return token.ToLower()
}

// must hold mu
func (l *MemoryLedger) balance(k balanceKey) *big.Int {
	if b, ok := l.st.balances[k]; ok {
		return b
	}
	return domain.Big0
}

// must hold mu
func (l *MemoryLedger) credit(k balanceKey, amount *big.Int) {
	l.st.balances[k] = new(big.Int).Add(l.balance(k), amount)
}

// must hold mu
func (l *MemoryLedger) move(token, from, to domain.Address, amount *big.Int, insufficient error) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	fromKey := balanceKey{token, from.ToLower()}
	if l.balance(fromKey).Cmp(amount) < 0 {
		return insufficient
	}
	l.st.balances[fromKey] = new(big.Int).Sub(l.balance(fromKey), amount)
	l.credit(balanceKey{token, to.ToLower()}, amount)
	return nil
}

type registry MemoryLedger

func (r *registry) SupportsInterface(c ctx.Ctx, contract domain.Address, interfaceId string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.st.collections[contract.ToLower()]
	if !ok {
		return false, nil
	}
	return col.interfaces[interfaceId], nil
}

func (r *registry) OwnerOf(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.st.collections[contract.ToLower()]; !ok {
		return "", ledger.ErrUnknownContract
	}
	owner, ok := r.st.owners[nftKey{contract.ToLower(), tokenId}]
	if !ok {
		return "", ledger.ErrNonexistentToken
	}
	return owner, nil
}

func (r *registry) GetApproved(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k := nftKey{contract.ToLower(), tokenId}
	if _, ok := r.st.owners[k]; !ok {
		return "", ledger.ErrNonexistentToken
	}
	approved, ok := r.st.approvals[k]
	if !ok {
		return domain.EmptyAddress, nil
	}
	return approved, nil
}

func (r *registry) IsApprovedForAll(c ctx.Ctx, contract domain.Address, owner, operator domain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.operators[operatorKey{contract.ToLower(), owner.ToLower(), operator.ToLower()}], nil
}

func (r *registry) TransferFrom(c ctx.Ctx, contract domain.Address, operator, from, to domain.Address, tokenId domain.TokenId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := nftKey{contract.ToLower(), tokenId}
	owner, ok := r.st.owners[k]
	if !ok {
		return ledger.ErrNonexistentToken
	}
	if !owner.Equals(operator) && !r.st.approvals[k].Equals(operator) &&
		!r.st.operators[operatorKey{k.contract, owner, operator.ToLower()}] {
		return ledger.ErrNotOwnerNorApproved
	}
	if !owner.Equals(from) {
		return ledger.ErrTransferFromIncorrect
	}
	if to.IsEmpty() {
		return ledger.ErrTransferToZero
	}
	delete(r.st.approvals, k)
	r.st.owners[k] = to.ToLower()
	c.WithFields(log.Fields{
		"contract": k.contract,
		"tokenId":  tokenId,
		"from":     from,
		"to":       to,
	}).Debug("asset transferred")
	return nil
}

type native MemoryLedger

func (n *native) BalanceOf(c ctx.Ctx, account domain.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return new(big.Int).Set((*MemoryLedger)(n).balance(balanceKey{domain.NativeCurrency, account.ToLower()})), nil
}

// Transfer runs the recipient's receive hook first, without holding the lock so the hook may call back in
func (n *native) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	n.mu.RLock()
	hook := n.hooks[to.ToLower()]
	n.mu.RUnlock()

	if hook != nil {
		if err := hook(c, from, amount); err != nil {
			c.WithFields(log.Fields{"err": err, "to": to}).Warn("payment rejected by recipient")
			return ledger.ErrPaymentRejected
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return (*MemoryLedger)(n).move(domain.NativeCurrency, from, to, amount, ledger.ErrInsufficientNative)
}

type tokens MemoryLedger

func (t *tokens) BalanceOf(c ctx.Ctx, token domain.Address, account domain.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set((*MemoryLedger)(t).balance(balanceKey{token.ToLower(), account.ToLower()})), nil
}

func (t *tokens) Allowance(c ctx.Ctx, token domain.Address, owner, spender domain.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if a, ok := t.st.allowances[allowanceKey{token.ToLower(), owner.ToLower(), spender.ToLower()}]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

func (t *tokens) Approve(c ctx.Ctx, token domain.Address, owner, spender domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.allowances[allowanceKey{token.ToLower(), owner.ToLower(), spender.ToLower()}] = new(big.Int).Set(amount)
	return nil
}

func (t *tokens) Transfer(c ctx.Ctx, token domain.Address, from, to domain.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return (*MemoryLedger)(t).move(token.ToLower(), from, to, amount, ledger.ErrInsufficientBalance)
}

// TransferFrom checks the balance before the allowance, the way OpenZeppelin ERC20 reports it
func (t *tokens) TransferFrom(c ctx.Ctx, token domain.Address, spender, from, to domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	l := (*MemoryLedger)(t)
	if l.balance(balanceKey{token.ToLower(), from.ToLower()}).Cmp(amount) < 0 {
		return ledger.ErrInsufficientBalance
	}
	ak := allowanceKey{token.ToLower(), from.ToLower(), spender.ToLower()}
	allowance, ok := t.st.allowances[ak]
	if !ok || allowance.Cmp(amount) < 0 {
		return ledger.ErrInsufficientAllowance
	}
	if err := l.move(token.ToLower(), from, to, amount, ledger.ErrInsufficientBalance); err != nil {
		return err
	}
	t.st.allowances[ak] = new(big.Int).Sub(allowance, amount)
	return nil
}

type wrapper MemoryLedger

func (w *wrapper) Address() domain.Address {
	return w.wrapper
}

func (w *wrapper) DepositFor(c ctx.Ctx, from, beneficiary domain.Address, amount *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	l := (*MemoryLedger)(w)
	if err := l.move(domain.NativeCurrency, from, w.wrapper, amount, ledger.ErrInsufficientNative); err != nil {
		return err
	}
	l.credit(balanceKey{w.wrapper, beneficiary.ToLower()}, amount)
	return nil
}

type royaltyReader MemoryLedger

func (r *royaltyReader) info(contract domain.Address, schema royalty.Schema) (domain.Address, uint16, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.st.collections[contract.ToLower()]
	if !ok {
		return "", 0, ledger.ErrUnknownContract
	}
	if col.royalty.Schema != schema {
		return domain.EmptyAddress, 0, nil
	}
	return col.royalty.Recipient, col.royalty.Bps, nil
}

func (r *royaltyReader) SupportsInterface(c ctx.Ctx, contract domain.Address, interfaceId string) (bool, error) {
	return (*registry)(r).SupportsInterface(c, contract, interfaceId)
}

func (r *royaltyReader) RoyaltyInfo(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId, salePrice *big.Int) (domain.Address, *big.Int, error) {
	recipient, bps, err := r.info(contract, royalty.SchemaModern)
	if err != nil {
		return "", nil, err
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(int64(bps)))
	return recipient, amount.Quo(amount, domain.Big10000), nil
}

func (r *royaltyReader) RoyaltyInfoBps(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	recipient, bps, err := r.info(contract, royalty.SchemaLegacyV2)
	if err != nil {
		return "", nil, err
	}
	return recipient, big.NewInt(int64(bps)), nil
}

func (r *royaltyReader) GetRoyalty(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (domain.Address, *big.Int, error) {
	recipient, bps, err := r.info(contract, royalty.SchemaLegacyV1)
	if err != nil {
		return "", nil, err
	}
	return recipient, big.NewInt(int64(bps)), nil
}
