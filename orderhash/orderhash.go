// Package orderhash rebuilds order preimages byte for byte and digests them,
// so that a locally reconstructed order can be checked against the hash the
// contracts committed to.
package orderhash

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// Preimage lengths per layout version.
const (
	PreimageLenV1    = 218
	PreimageLenV2    = 220
	PreimageLenSwift = 239
)

// actionOrderCreate prefixes the v2 preimage.
const actionOrderCreate = 1

// Fields is everything a circle-settled order commits to.
type Fields struct {
	Trader       chain.Address
	SourceChain  chain.ID
	TokenIn      chain.Address
	AmountIn     uint64
	DestAddr     chain.Address
	DestChain    chain.ID
	TokenOut     chain.Address
	MinAmountOut uint64
	GasDrop      uint64
	RedeemFee    uint64
	Deadline     uint64
	ReferrerAddr chain.Address
	ReferrerBps  uint8
	MayanBps     uint8
	CctpNonce    uint64
	CctpDomain   uint32
	// PayloadType is only committed to by the v2 layout.
	PayloadType uint8
}

// SwiftFields is everything an auction-settled order commits to.
type SwiftFields struct {
	Trader       chain.Address
	SourceChain  chain.ID
	TokenIn      chain.Address
	DestAddr     chain.Address
	DestChain    chain.ID
	TokenOut     chain.Address
	MinAmountOut uint64
	GasDrop      uint64
	CancelFee    uint64
	RefundFee    uint64
	Deadline     uint64
	ReferrerAddr chain.Address
	ReferrerBps  uint8
	MayanBps     uint8
	AuctionMode  uint8
	RandomKey    [32]byte
}

type writer struct {
	buf []byte
}

func (w *writer) bytes32(a [32]byte) { w.buf = append(w.buf, a[:]...) }
func (w *writer) u8(v uint8)         { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16)       { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32)       { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64)       { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

func (w *writer) finish(want int) ([]byte, error) {
	if len(w.buf) != want {
		return nil, errors.Wrapf(gerror.ErrPreimageLength, "got %d, want %d", len(w.buf), want)
	}
	return w.buf, nil
}

// BuildV1 serializes the 218-byte first-layout preimage.
func BuildV1(f Fields) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, PreimageLenV1)}
	writeCommon(w, f)
	return w.finish(PreimageLenV1)
}

// BuildV2 serializes the 220-byte second-layout preimage. It prefixes the
// create action and the payload type in front of the v1 fields.
func BuildV2(f Fields) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, PreimageLenV2)}
	w.u8(actionOrderCreate)
	w.u8(f.PayloadType)
	writeCommon(w, f)
	return w.finish(PreimageLenV2)
}

func writeCommon(w *writer, f Fields) {
	w.bytes32(f.Trader)
	w.u16(uint16(f.SourceChain))
	w.bytes32(f.TokenIn)
	w.u64(f.AmountIn)
	w.bytes32(f.DestAddr)
	w.u16(uint16(f.DestChain))
	w.bytes32(f.TokenOut)
	w.u64(f.MinAmountOut)
	w.u64(f.GasDrop)
	w.u64(f.RedeemFee)
	w.u64(f.Deadline)
	w.bytes32(f.ReferrerAddr)
	w.u8(f.ReferrerBps)
	w.u8(f.MayanBps)
	w.u64(f.CctpNonce)
	w.u32(f.CctpDomain)
}

// BuildSwift serializes the 239-byte auction order preimage.
func BuildSwift(f SwiftFields) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, PreimageLenSwift)}
	w.bytes32(f.Trader)
	w.u16(uint16(f.SourceChain))
	w.bytes32(f.TokenIn)
	w.bytes32(f.DestAddr)
	w.u16(uint16(f.DestChain))
	w.bytes32(f.TokenOut)
	w.u64(f.MinAmountOut)
	w.u64(f.GasDrop)
	w.u64(f.CancelFee)
	w.u64(f.RefundFee)
	w.u64(f.Deadline)
	w.bytes32(f.ReferrerAddr)
	w.u8(f.ReferrerBps)
	w.u8(f.MayanBps)
	w.u8(f.AuctionMode)
	w.bytes32(f.RandomKey)
	return w.finish(PreimageLenSwift)
}

// Digest hashes a serialized preimage with keccak256.
func Digest(preimage []byte) common.Hash {
	return crypto.Keccak256Hash(preimage)
}

// Verify digests the preimage and compares it against the expected hash.
func Verify(preimage []byte, expected common.Hash) error {
	got := Digest(preimage)
	if got != expected {
		return errors.Wrapf(gerror.ErrOrderHashMismatch, "computed %s, expected %s", got.Hex(), expected.Hex())
	}
	return nil
}
