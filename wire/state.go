package wire

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// swapStateMinLen covers every fixed field up to the winner key.
const swapStateMinLen = 363

// SwapStateStatus is the on-chain progress marker of a solana swap state
// account.
type SwapStateStatus uint8

// Swap state statuses.
const (
	StateClaimed        SwapStateStatus = 1
	StateSwapDone       SwapStateStatus = 2
	StateDoneSwapped    SwapStateStatus = 4
	StateDoneNotSwapped SwapStateStatus = 5
)

// SwapState is the decoded view of a solana swap state account. Numeric
// account fields are little-endian on chain.
type SwapState struct {
	Status       SwapStateStatus
	Msg1         chain.Address
	Msg2         chain.Address
	Amount       int64
	RedeemSeqRaw int64
	FromToken    chain.Address
	ToToken      chain.Address
	DestAddr     chain.Address
	DestChain    chain.ID
	SourceAddr   chain.Address
	SourceChain  chain.ID
	SwapFee      int64
	RefundFee    int64
	RedeemFee    int64
	Deadline     int64
	AmountOutMin int64
	Auction      chain.Address
	MayanBps     uint8
	ReferrerBps  uint8
	Winner       chain.Address
}

// ParseSwapState decodes a swap state account.
func ParseSwapState(buf []byte) (*SwapState, error) {
	if len(buf) < swapStateMinLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "swap state length %d, want at least %d", len(buf), swapStateMinLen)
	}
	switch SwapStateStatus(buf[0]) {
	case StateClaimed, StateSwapDone, StateDoneSwapped, StateDoneNotSwapped:
	default:
		return nil, errors.Wrapf(gerror.ErrDecode, "swap state status %d", buf[0])
	}
	s := &SwapState{
		Status:       SwapStateStatus(buf[0]),
		Amount:       int64(binary.LittleEndian.Uint64(buf[65:73])),
		RedeemSeqRaw: int64(binary.LittleEndian.Uint64(buf[73:81])),
		DestChain:    chain.ID(binary.LittleEndian.Uint16(buf[177:179])),
		SourceChain:  chain.ID(binary.LittleEndian.Uint16(buf[211:213])),
		SwapFee:      int64(binary.LittleEndian.Uint64(buf[213:221])),
		RefundFee:    int64(binary.LittleEndian.Uint64(buf[221:229])),
		RedeemFee:    int64(binary.LittleEndian.Uint64(buf[229:237])),
		Deadline:     int64(binary.LittleEndian.Uint64(buf[237:245])),
		AmountOutMin: int64(binary.LittleEndian.Uint64(buf[245:253])),
		MayanBps:     buf[329],
		ReferrerBps:  buf[330],
	}
	copy(s.Msg1[:], buf[1:33])
	copy(s.Msg2[:], buf[33:65])
	copy(s.FromToken[:], buf[81:113])
	copy(s.ToToken[:], buf[113:145])
	copy(s.DestAddr[:], buf[145:177])
	copy(s.SourceAddr[:], buf[179:211])
	copy(s.Auction[:], buf[254:286])
	copy(s.Winner[:], buf[331:363])
	return s, nil
}

// AmountIn returns the input amount while the swap has not been executed yet.
func (s *SwapState) AmountIn() (int64, bool) {
	if s.Status == StateDoneSwapped || s.Status == StateSwapDone {
		return 0, false
	}
	return s.Amount, true
}

// AmountOut returns the output amount once the swap has been executed.
func (s *SwapState) AmountOut() (int64, bool) {
	if s.Status == StateDoneSwapped || s.Status == StateSwapDone {
		return s.Amount, true
	}
	return 0, false
}

// RedeemSequence returns the sequence of the redeem (or refund) message once
// the state is final. Settlements on solana itself emit no message.
func (s *SwapState) RedeemSequence() (int64, bool) {
	if s.Status == StateClaimed || s.Status == StateSwapDone {
		return 0, false
	}
	if (s.Status == StateDoneSwapped && s.DestChain == chain.Solana) ||
		(s.Status == StateDoneNotSwapped && s.SourceChain == chain.Solana) {
		return 0, false
	}
	return s.RedeemSeqRaw - 1, true
}
