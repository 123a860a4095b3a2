package chain

import (
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// ID is a wormhole-style chain identifier.
type ID uint16

// Supported chains.
const (
	Solana    ID = 1
	Ethereum  ID = 2
	BSC       ID = 4
	Polygon   ID = 5
	Avalanche ID = 6
	Sui       ID = 21
	Aptos     ID = 22
	Arbitrum  ID = 23
	Optimism  ID = 24
	Base      ID = 30
	Linea     ID = 38
	Unichain  ID = 44
	Sonic     ID = 52
	Hypercore ID = 65000
)

var chainNames = map[ID]string{
	Solana:    "solana",
	Ethereum:  "ethereum",
	BSC:       "bsc",
	Polygon:   "polygon",
	Avalanche: "avalanche",
	Sui:       "sui",
	Aptos:     "aptos",
	Arbitrum:  "arbitrum",
	Optimism:  "optimism",
	Base:      "base",
	Linea:     "linea",
	Unichain:  "unichain",
	Sonic:     "sonic",
	Hypercore: "hypercore",
}

// circle domains and chain ids map 1:1, neither direction is total
var domainToChain = map[uint32]ID{
	0:  Ethereum,
	1:  Avalanche,
	2:  Optimism,
	3:  Arbitrum,
	5:  Solana,
	6:  Base,
	7:  Polygon,
	8:  Sui,
	10: Unichain,
	11: Linea,
	13: Sonic,
}

var chainToDomain = func() map[ID]uint32 {
	m := make(map[ID]uint32, len(domainToChain))
	for d, c := range domainToChain {
		m[c] = d
	}
	return m
}()

// Name returns the lowercase chain name, or "unknown" for an id out of the
// supported set.
func (c ID) Name() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return "unknown"
}

// IsSupported tells whether the id belongs to the supported chain set.
func (c ID) IsSupported() bool {
	_, ok := chainNames[c]
	return ok
}

// IsEVM tells whether the chain uses 20-byte evm addresses.
func (c ID) IsEVM() bool {
	switch c {
	case Ethereum, BSC, Polygon, Avalanche, Arbitrum, Optimism, Base, Linea, Unichain, Sonic:
		return true
	}
	return false
}

// FromName maps a lowercase chain name back to its id.
func FromName(name string) (ID, error) {
	for c, n := range chainNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Wrapf(gerror.ErrUnknownChainDomain, "chain name %q", name)
}

// FromDomain maps a circle domain to its chain id.
func FromDomain(domain uint32) (ID, error) {
	c, ok := domainToChain[domain]
	if !ok {
		return 0, errors.Wrapf(gerror.ErrUnknownChainDomain, "circle domain %d", domain)
	}
	return c, nil
}

// ToDomain maps a chain id to its circle domain.
func ToDomain(c ID) (uint32, error) {
	d, ok := chainToDomain[c]
	if !ok {
		return 0, errors.Wrapf(gerror.ErrUnknownChainDomain, "chain %d (%s)", c, c.Name())
	}
	return d, nil
}
