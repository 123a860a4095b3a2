package orderhash

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFields() Fields {
	var trader, tokenIn, destAddr, tokenOut, referrer chain.Address
	trader[31] = 1
	tokenIn[31] = 2
	destAddr[31] = 3
	tokenOut[31] = 4
	referrer[31] = 5
	return Fields{
		Trader:       trader,
		SourceChain:  chain.Avalanche,
		TokenIn:      tokenIn,
		AmountIn:     1000000,
		DestAddr:     destAddr,
		DestChain:    chain.Solana,
		TokenOut:     tokenOut,
		MinAmountOut: 990000,
		GasDrop:      0,
		RedeemFee:    150,
		Deadline:     1767225600,
		ReferrerAddr: referrer,
		ReferrerBps:  5,
		MayanBps:     3,
		CctpNonce:    77812,
		CctpDomain:   1,
		PayloadType:  1,
	}
}

func TestPreimageLengths(t *testing.T) {
	f := sampleFields()

	v1, err := BuildV1(f)
	require.NoError(t, err)
	assert.Len(t, v1, PreimageLenV1)

	v2, err := BuildV2(f)
	require.NoError(t, err)
	assert.Len(t, v2, PreimageLenV2)

	// v2 is the v1 preimage with a two byte prefix
	assert.Equal(t, v1, v2[2:])
	assert.Equal(t, byte(actionOrderCreate), v2[0])
	assert.Equal(t, f.PayloadType, v2[1])

	sw, err := BuildSwift(SwiftFields{})
	require.NoError(t, err)
	assert.Len(t, sw, PreimageLenSwift)
}

func TestPreimageFieldPlacement(t *testing.T) {
	f := sampleFields()
	v1, err := BuildV1(f)
	require.NoError(t, err)

	assert.Equal(t, f.Trader[:], v1[0:32])
	// source chain, big endian
	assert.Equal(t, []byte{0, 6}, v1[32:34])
	assert.Equal(t, f.TokenIn[:], v1[34:66])
	// amount in
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0x0f, 0x42, 0x40}, v1[66:74])
	// tail: referrer bps, mayan bps, cctp nonce, cctp domain
	assert.Equal(t, byte(5), v1[204])
	assert.Equal(t, byte(3), v1[205])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0x2f, 0xf4}, v1[206:214])
	assert.Equal(t, []byte{0, 0, 0, 1}, v1[214:218])
}

func TestDigestGolden(t *testing.T) {
	// keccak256 test vectors
	assert.Equal(t,
		common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Digest(nil))
	assert.Equal(t,
		common.HexToHash("0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"),
		Digest([]byte("abc")))
}

func TestDigestDeterministic(t *testing.T) {
	f := sampleFields()
	a, err := BuildV2(f)
	require.NoError(t, err)
	b, err := BuildV2(f)
	require.NoError(t, err)
	assert.Equal(t, Digest(a), Digest(b))

	// any field flip moves the digest
	f.MinAmountOut++
	c, err := BuildV2(f)
	require.NoError(t, err)
	assert.NotEqual(t, Digest(a), Digest(c))
}

func TestVerify(t *testing.T) {
	f := sampleFields()
	pre, err := BuildV1(f)
	require.NoError(t, err)

	require.NoError(t, Verify(pre, Digest(pre)))

	var wrong common.Hash
	wrong[0] = 0xff
	err = Verify(pre, wrong)
	require.Error(t, err)
}
