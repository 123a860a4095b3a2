package chain

import (
	"testing"

	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainMapping(t *testing.T) {
	tcs := []struct {
		domain uint32
		chain  ID
	}{
		{0, Ethereum},
		{1, Avalanche},
		{2, Optimism},
		{3, Arbitrum},
		{5, Solana},
		{6, Base},
		{7, Polygon},
		{8, Sui},
		{10, Unichain},
		{11, Linea},
		{13, Sonic},
	}
	for _, tc := range tcs {
		c, err := FromDomain(tc.domain)
		require.NoError(t, err)
		assert.Equal(t, tc.chain, c)

		d, err := ToDomain(tc.chain)
		require.NoError(t, err)
		assert.Equal(t, tc.domain, d)
	}
}

func TestDomainMappingPartial(t *testing.T) {
	// domain 4 (noble) is outside the supported set
	_, err := FromDomain(4)
	require.ErrorIs(t, err, gerror.ErrUnknownChainDomain)

	// bsc and hypercore have no circle domain
	_, err = ToDomain(BSC)
	require.ErrorIs(t, err, gerror.ErrUnknownChainDomain)
	_, err = ToDomain(Hypercore)
	require.ErrorIs(t, err, gerror.ErrUnknownChainDomain)
}

func TestAddressRoundTripEVM(t *testing.T) {
	native := "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	a, err := FromNative(native, Base)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Zero(t, a[i])
	}
	back, err := a.ToNative(Base)
	require.NoError(t, err)
	assert.Equal(t, native, back)
}

func TestAddressRoundTripSolana(t *testing.T) {
	native := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	a, err := FromNative(native, Solana)
	require.NoError(t, err)
	back, err := a.ToNative(Solana)
	require.NoError(t, err)
	assert.Equal(t, native, back)
}

func TestAddressRoundTripSui(t *testing.T) {
	native := "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7"
	a, err := FromNative(native, Sui)
	require.NoError(t, err)
	back, err := a.ToNative(Sui)
	require.NoError(t, err)
	assert.Equal(t, native, back)
}

func TestAddressBadEVMPad(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = 0xff
	}
	_, err := a.ToNative(Ethereum)
	require.ErrorIs(t, err, gerror.ErrInvalidAddressPadding)

	// the same 32 bytes are a legal sui address
	_, err = a.ToNative(Sui)
	require.NoError(t, err)
}

func TestAddressFromBytesLength(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 20))
	require.ErrorIs(t, err, gerror.ErrDecode)
	_, err = AddressFromBytes(make([]byte, 32))
	require.NoError(t, err)
}
