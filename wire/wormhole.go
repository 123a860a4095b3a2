package wire

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// Wormhole payload minimum lengths.
const (
	transferPayloadMinLen = 133
	swapPayloadMinLen     = 225
)

// CctpSwapPayloadLen is the size of the published circle swap payload.
const CctpSwapPayloadLen = 34

// Signed message framing: version, guardian set index and signature count,
// then 66 bytes per signature. The body follows the last signature.
const (
	vaaHeaderLen    = 6
	vaaSignatureLen = 66
)

// VaaDigest returns the digest the evm contracts key a consumed message by.
// The contracts hash the message body twice.
func VaaDigest(vaa []byte) (common.Hash, error) {
	if len(vaa) < vaaHeaderLen {
		return common.Hash{}, errors.Wrapf(gerror.ErrDecode, "signed message length %d, want at least %d", len(vaa), vaaHeaderLen)
	}
	body := vaaHeaderLen + int(vaa[5])*vaaSignatureLen
	if len(vaa) <= body {
		return common.Hash{}, errors.Wrapf(gerror.ErrDecode, "signed message length %d, body starts at %d", len(vaa), body)
	}
	return crypto.Keccak256Hash(crypto.Keccak256(vaa[body:])), nil
}

// TransferPayload is the token-bridge transfer body of a signed message.
type TransferPayload struct {
	PayloadID     uint8
	Amount        *big.Int
	TokenAddress  chain.Address
	TokenChain    chain.ID
	TargetAddress chain.Address
	TargetChain   chain.ID
	Fee           *big.Int
}

// ParseTransferPayload decodes a token-bridge transfer body.
func ParseTransferPayload(buf []byte) (*TransferPayload, error) {
	if len(buf) < transferPayloadMinLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "transfer payload length %d, want at least %d", len(buf), transferPayloadMinLen)
	}
	p := &TransferPayload{
		PayloadID:   buf[0],
		Amount:      new(big.Int).SetBytes(buf[1:33]),
		TokenChain:  chain.ID(binary.BigEndian.Uint16(buf[65:67])),
		TargetChain: chain.ID(binary.BigEndian.Uint16(buf[99:101])),
		Fee:         new(big.Int).SetBytes(buf[101:133]),
	}
	copy(p.TokenAddress[:], buf[33:65])
	copy(p.TargetAddress[:], buf[67:99])
	return p, nil
}

// SwapPayload is the mayan swap body forwarded along a transfer.
type SwapPayload struct {
	PayloadID        uint8
	TokenAddress     chain.Address
	TokenChain       chain.ID
	TargetAddress    chain.Address
	TargetChain      chain.ID
	SourceAddress    chain.Address
	SourceChain      chain.ID
	TransferSequence int64
	AmountMin        uint64
	Deadline         uint64
	SwapFee          uint64
	RedeemFee        uint64
	RefundFee        uint64
	AuctionAddress   chain.Address
	UnwrapRedeem     bool
	UnwrapRefund     bool
	Referrer         chain.Address
	GasDrop          uint64
}

// ParseSwapPayload decodes a mayan swap body.
func ParseSwapPayload(buf []byte) (*SwapPayload, error) {
	if len(buf) < swapPayloadMinLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "swap payload length %d, want at least %d", len(buf), swapPayloadMinLen)
	}
	p := &SwapPayload{
		PayloadID:        buf[0],
		TokenChain:       chain.ID(binary.BigEndian.Uint16(buf[33:35])),
		TargetChain:      chain.ID(binary.BigEndian.Uint16(buf[67:69])),
		SourceChain:      chain.ID(binary.BigEndian.Uint16(buf[101:103])),
		TransferSequence: int64(binary.BigEndian.Uint64(buf[103:111])),
		AmountMin:        binary.BigEndian.Uint64(buf[111:119]),
		Deadline:         binary.BigEndian.Uint64(buf[119:127]),
		SwapFee:          binary.BigEndian.Uint64(buf[127:135]),
		RedeemFee:        binary.BigEndian.Uint64(buf[135:143]),
		RefundFee:        binary.BigEndian.Uint64(buf[143:151]),
		UnwrapRedeem:     buf[183] != 0,
		UnwrapRefund:     buf[184] != 0,
		GasDrop:          binary.BigEndian.Uint64(buf[217:225]),
	}
	copy(p.TokenAddress[:], buf[1:33])
	copy(p.TargetAddress[:], buf[35:67])
	copy(p.SourceAddress[:], buf[69:101])
	copy(p.AuctionAddress[:], buf[151:183])
	copy(p.Referrer[:], buf[185:217])
	return p, nil
}

// CctpSwapPayload carries the order hash a circle-settled swap was created
// with, letting the destination side bind message and order together.
type CctpSwapPayload struct {
	Action    uint8
	PayloadID uint8
	OrderHash common.Hash
}

// ParseCctpSwapPayload decodes a circle swap payload.
func ParseCctpSwapPayload(buf []byte) (*CctpSwapPayload, error) {
	if len(buf) < CctpSwapPayloadLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "cctp swap payload length %d, want at least %d", len(buf), CctpSwapPayloadLen)
	}
	p := &CctpSwapPayload{
		Action:    buf[0],
		PayloadID: buf[1],
	}
	copy(p.OrderHash[:], buf[2:34])
	return p, nil
}
