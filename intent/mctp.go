package intent

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// circleDomainSolana is the source domain of every solana-origin deposit.
const circleDomainSolana = 5

// First-version mctp opcodes. The opcode is the first data byte.
const (
	opRedeemWithFee    = 10
	opBridgeWithFee    = 11
	opBridgeLockedFee  = 12
	opUnlockFee        = 13
	opFlashSwapFinish  = 24
	opSettle           = 25
	opRefund           = 26
	opInitBridgeLedger = 40
	opInitSwapLedger   = 41
	opInitSwap         = 42
)

// Argument blob sizes. Ledger arguments are little-endian.
const (
	initBridgeLedgerArgsLen = 72
	initSwapLedgerArgsLen   = 153
	redeemWithFeeArgsLen    = 33 + 248
	domainArgsMinLen        = 5
)

// DecodeMctp decodes a first-version mctp instruction. Unknown opcodes are
// not an error, they decode to nil.
func DecodeMctp(ins Instruction) (*Intent, error) {
	if len(ins.Data) == 0 {
		return nil, errors.Wrap(gerror.ErrDecode, "empty instruction data")
	}
	switch ins.Data[0] {
	case opInitBridgeLedger:
		return decodeInitBridgeLedger(ins)
	case opInitSwapLedger:
		return decodeInitSwapLedger(ins)
	case opInitSwap:
		return decodeInitSwap(ins)
	case opBridgeWithFee:
		return decodeBridgeWithFee(ins)
	case opBridgeLockedFee:
		return decodeBridgeLockedFee(ins)
	case opRedeemWithFee:
		return decodeRedeemWithFee(ins)
	case opUnlockFee:
		return &Intent{Protocol: ProtocolMctp, Goal: GoalUnlockFee}, nil
	case opFlashSwapFinish:
		return stateIntent(ins, GoalSwap)
	case opSettle:
		return stateIntent(ins, GoalSettle)
	case opRefund:
		return stateIntent(ins, GoalRefund)
	default:
		return nil, nil
	}
}

func decodeInitBridgeLedger(ins Instruction) (*Intent, error) {
	data := ins.Data
	if len(data) < initBridgeLedgerArgsLen || len(ins.Accounts) < 8 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initBridgeLedger data %d accounts %d", len(data), len(ins.Accounts))
	}
	in := &Intent{
		Protocol:    ProtocolMctp,
		Goal:        GoalRegisterBridge,
		UserWallet:  ins.Accounts[0],
		LedgerAcc:   ins.Accounts[1],
		MintAcc:     ins.Accounts[3],
		ReferrerAcc: ins.Accounts[7],
		GasDrop:     binary.LittleEndian.Uint64(data[41:49]),
		FeeRedeem:   binary.LittleEndian.Uint64(data[49:57]),
		FeeSolana:   binary.LittleEndian.Uint64(data[57:65]),
		DestDomain:  binary.LittleEndian.Uint32(data[65:69]),
		DestChain:   chain.ID(binary.LittleEndian.Uint16(data[69:71])),
		DepositMode: DepositMode(data[71]),
	}
	copy(in.DestAddress[:], data[1:33])
	return in, nil
}

func decodeInitSwapLedger(ins Instruction) (*Intent, error) {
	data := ins.Data
	if len(data) < initSwapLedgerArgsLen || len(ins.Accounts) < 4 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initSwapLedger data %d accounts %d", len(data), len(ins.Accounts))
	}
	in := &Intent{
		Protocol:     ProtocolMctp,
		Goal:         GoalRegisterOrder,
		UserWallet:   ins.Accounts[0],
		LedgerAcc:    ins.Accounts[1],
		MintAcc:      ins.Accounts[3],
		GasDrop:      binary.LittleEndian.Uint64(data[41:49]),
		FeeRedeem:    binary.LittleEndian.Uint64(data[49:57]),
		FeeSolana:    binary.LittleEndian.Uint64(data[57:65]),
		DestDomain:   binary.LittleEndian.Uint32(data[65:69]),
		DestChain:    chain.ID(binary.LittleEndian.Uint16(data[69:71])),
		DepositMode:  DepositMode(data[71]),
		MinAmountOut: binary.LittleEndian.Uint64(data[136:144]),
		Deadline:     binary.LittleEndian.Uint64(data[144:152]),
		ReferrerBps:  data[152],
	}
	copy(in.DestAddress[:], data[1:33])
	copy(in.TokenOut[:], data[72:104])
	copy(in.ReferrerAddr[:], data[104:136])
	return in, nil
}

func decodeInitSwap(ins Instruction) (*Intent, error) {
	if len(ins.Accounts) < 14 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initSwap accounts %d", len(ins.Accounts))
	}
	return &Intent{
		Protocol:     ProtocolMctp,
		Goal:         GoalCreateOrder,
		StateAcc:     ins.Accounts[0],
		LedgerAcc:    ins.Accounts[4],
		CircleMsgAcc: ins.Accounts[13],
	}, nil
}

func decodeBridgeWithFee(ins Instruction) (*Intent, error) {
	if len(ins.Data) < domainArgsMinLen || len(ins.Accounts) < 14 {
		return nil, errors.Wrapf(gerror.ErrDecode, "bridgeWithFee data %d accounts %d", len(ins.Data), len(ins.Accounts))
	}
	return &Intent{
		Protocol:       ProtocolMctp,
		Goal:           GoalBridge,
		LedgerAcc:      ins.Accounts[0],
		CircleMsgAcc:   ins.Accounts[9],
		WormholeMsgAcc: ins.Accounts[13],
		DestDomain:     binary.LittleEndian.Uint32(ins.Data[1:5]),
		SourceDomain:   circleDomainSolana,
	}, nil
}

func decodeBridgeLockedFee(ins Instruction) (*Intent, error) {
	if len(ins.Data) < domainArgsMinLen || len(ins.Accounts) < 12 {
		return nil, errors.Wrapf(gerror.ErrDecode, "bridgeLockedFee data %d accounts %d", len(ins.Data), len(ins.Accounts))
	}
	return &Intent{
		Protocol:     ProtocolMctp,
		Goal:         GoalBridgeLocked,
		LedgerAcc:    ins.Accounts[0],
		CircleMsgAcc: ins.Accounts[9],
		FeeStateAcc:  ins.Accounts[11],
		DestDomain:   binary.LittleEndian.Uint32(ins.Data[1:5]),
		SourceDomain: circleDomainSolana,
	}, nil
}

func decodeRedeemWithFee(ins Instruction) (*Intent, error) {
	if len(ins.Data) < redeemWithFeeArgsLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "redeemWithFee data %d", len(ins.Data))
	}
	return &Intent{
		Protocol:      ProtocolMctp,
		Goal:          GoalRedeem,
		CircleMessage: ins.Data[33 : 33+248],
	}, nil
}

func stateIntent(ins Instruction, goal Goal) (*Intent, error) {
	if len(ins.Accounts) < 1 {
		return nil, errors.Wrapf(gerror.ErrDecode, "%s accounts %d", goal, len(ins.Accounts))
	}
	return &Intent{
		Protocol: ProtocolMctp,
		Goal:     goal,
		StateAcc: ins.Accounts[0],
	}, nil
}
