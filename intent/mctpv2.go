package intent

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// Second-version programs key instructions by name instead of opcode. The
// argument blobs are little-endian with fixed layouts.
const (
	v2BridgeLedgerArgsLen = 59
	v2OrderLedgerArgsLen  = 140
)

// DecodeMctpV2 decodes a second-version mctp instruction by name. Unknown
// names decode to nil.
func DecodeMctpV2(ins Instruction) (*Intent, error) {
	switch ins.Name {
	case "initBridgeLedger":
		return decodeV2BridgeLedger(ins)
	case "initOrderLedger":
		return decodeV2OrderLedger(ins)
	case "createOrder":
		if err := wantAccounts(ins, 14); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:     ProtocolMctpV2,
			Goal:         GoalCreateOrder,
			LedgerAcc:    ins.Accounts[0],
			StateAcc:     ins.Accounts[5],
			CircleMsgAcc: ins.Accounts[13],
		}, nil
	case "bridgeWithFee":
		if err := wantAccounts(ins, 20); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:       ProtocolMctpV2,
			Goal:           GoalBridge,
			LedgerAcc:      ins.Accounts[0],
			CircleMsgAcc:   ins.Accounts[12],
			WormholeMsgAcc: ins.Accounts[19],
			SourceDomain:   circleDomainSolana,
		}, nil
	case "bridgeLockedFee":
		if err := wantAccounts(ins, 15); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:     ProtocolMctpV2,
			Goal:         GoalBridgeLocked,
			LedgerAcc:    ins.Accounts[0],
			FeeStateAcc:  ins.Accounts[4],
			CircleMsgAcc: ins.Accounts[14],
			SourceDomain: circleDomainSolana,
		}, nil
	case "settleOrder":
		return stateIntentV2(ins, GoalSettle)
	case "refundOrder":
		return stateIntentV2(ins, GoalRefund)
	case "flashSwapFinish":
		return stateIntentV2(ins, GoalSwap)
	case "unlockFee":
		return &Intent{Protocol: ProtocolMctpV2, Goal: GoalUnlockFee}, nil
	case "redeemWithFee", "redeemWithFeeShim", "redeemWithFeeCustomPayload":
		if len(ins.Data) < 248 {
			return nil, errors.Wrapf(gerror.ErrDecode, "%s data %d", ins.Name, len(ins.Data))
		}
		return &Intent{
			Protocol:      ProtocolMctpV2,
			Goal:          GoalRedeem,
			CircleMessage: ins.Data[:248],
		}, nil
	default:
		return nil, nil
	}
}

func wantAccounts(ins Instruction, n int) error {
	if len(ins.Accounts) < n {
		return errors.Wrapf(gerror.ErrDecode, "%s accounts %d, want at least %d", ins.Name, len(ins.Accounts), n)
	}
	return nil
}

func stateIntentV2(ins Instruction, goal Goal) (*Intent, error) {
	if err := wantAccounts(ins, 1); err != nil {
		return nil, err
	}
	return &Intent{
		Protocol: ProtocolMctpV2,
		Goal:     goal,
		StateAcc: ins.Accounts[0],
	}, nil
}

func decodeV2BridgeLedger(ins Instruction) (*Intent, error) {
	data := ins.Data
	if len(data) < v2BridgeLedgerArgsLen || len(ins.Accounts) < 7 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initBridgeLedger data %d accounts %d", len(data), len(ins.Accounts))
	}
	in := &Intent{
		Protocol:         ProtocolMctpV2,
		Goal:             GoalRegisterBridge,
		UserWallet:       ins.Accounts[0],
		LedgerAcc:        ins.Accounts[1],
		CustomPayloadAcc: ins.Accounts[3],
		MintAcc:          ins.Accounts[4],
		ReferrerAcc:      ins.Accounts[6],
		GasDrop:          binary.LittleEndian.Uint64(data[32:40]),
		FeeRedeem:        binary.LittleEndian.Uint64(data[40:48]),
		FeeSolana:        binary.LittleEndian.Uint64(data[48:56]),
		DestChain:        chain.ID(binary.LittleEndian.Uint16(data[56:58])),
		DepositMode:      DepositMode(data[58]),
	}
	copy(in.DestAddress[:], data[0:32])
	return in, nil
}

func decodeV2OrderLedger(ins Instruction) (*Intent, error) {
	data := ins.Data
	if len(data) < v2OrderLedgerArgsLen || len(ins.Accounts) < 4 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initOrderLedger data %d accounts %d", len(data), len(ins.Accounts))
	}
	in := &Intent{
		Protocol:     ProtocolMctpV2,
		Goal:         GoalRegisterOrder,
		UserWallet:   ins.Accounts[0],
		LedgerAcc:    ins.Accounts[1],
		MintAcc:      ins.Accounts[3],
		GasDrop:      binary.LittleEndian.Uint64(data[32:40]),
		FeeRedeem:    binary.LittleEndian.Uint64(data[40:48]),
		FeeSolana:    binary.LittleEndian.Uint64(data[48:56]),
		DestChain:    chain.ID(binary.LittleEndian.Uint16(data[56:58])),
		DepositMode:  DepositMode(data[58]),
		MinAmountOut: binary.LittleEndian.Uint64(data[123:131]),
		Deadline:     binary.LittleEndian.Uint64(data[131:139]),
		ReferrerBps:  data[139],
	}
	copy(in.DestAddress[:], data[0:32])
	copy(in.TokenOut[:], data[59:91])
	copy(in.ReferrerAddr[:], data[91:123])
	return in, nil
}

// ExtractWriterPayloads collects the payload bytes the payload-writer
// program stored, keyed by the payload account. Ledger registrations later
// point at these accounts for their custom payload.
func ExtractWriterPayloads(writerProgram string, instructions []Instruction) map[string][]byte {
	payloads := make(map[string][]byte)
	for _, ins := range instructions {
		if ins.ProgramID != writerProgram || ins.Name != "createSimple" {
			continue
		}
		if len(ins.Accounts) < 2 {
			continue
		}
		payloads[ins.Accounts[1]] = ins.Data
	}
	return payloads
}
