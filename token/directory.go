package token

import (
	"context"
	"sync"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// Resolver looks a token up from a backing source (an rpc node, an indexer,
// redis) when the directory has no answer.
type Resolver interface {
	ResolveToken(ctx context.Context, c chain.ID, contract string) (*Token, error)
}

// Directory is a read-through token metadata cache. Lookups hit the static
// usdc table first, then the in-memory cache, then the resolver chain in
// order. A token resolved once stays cached.
type Directory struct {
	lock      sync.RWMutex
	tokens    map[string]*Token
	resolvers []Resolver
}

// NewDirectory builds a Directory on top of the given resolvers.
func NewDirectory(resolvers ...Resolver) *Directory {
	return &Directory{
		tokens:    make(map[string]*Token),
		resolvers: resolvers,
	}
}

// Get resolves a token by chain and contract.
func (d *Directory) Get(ctx context.Context, c chain.ID, contract string) (*Token, error) {
	if t := NativeUSDC(c); t != nil && Key(c, t.Contract) == Key(c, contract) {
		return t, nil
	}

	key := Key(c, contract)
	d.lock.RLock()
	t, ok := d.tokens[key]
	d.lock.RUnlock()
	if ok {
		return t, nil
	}

	for _, r := range d.resolvers {
		t, err := r.ResolveToken(ctx, c, contract)
		if err != nil {
			if errors.Is(err, gerror.ErrUnknownToken) || errors.Is(err, gerror.ErrStorageNotFound) {
				continue
			}
			return nil, err
		}
		d.lock.Lock()
		d.tokens[key] = t
		d.lock.Unlock()
		return t, nil
	}
	return nil, errors.Wrapf(gerror.ErrUnknownToken, "token %s on chain %s", contract, c.Name())
}

// GetCanonical resolves a token given its 32-byte form on the chain.
func (d *Directory) GetCanonical(ctx context.Context, c chain.ID, a chain.Address) (*Token, error) {
	native, err := a.ToNative(c)
	if err != nil {
		return nil, err
	}
	return d.Get(ctx, c, native)
}

// Put seeds the directory with a token, e.g. from configuration.
func (d *Directory) Put(t *Token) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.tokens[Key(t.Chain, t.Contract)] = t
}
