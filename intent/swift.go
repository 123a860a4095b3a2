package intent

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// initOrderArgsLen covers every order parameter of a new auction order.
const initOrderArgsLen = 190

// DecodeSwift decodes an auction program instruction by name. Unknown names
// decode to nil.
func DecodeSwift(ins Instruction) (*Intent, error) {
	switch ins.Name {
	case "initOrder":
		return decodeInitOrder(ins)
	case "registerOrder":
		if err := wantAccounts(ins, 2); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:   ProtocolSwift,
			Goal:       GoalRegisterOrder,
			RelayerAcc: ins.Accounts[0],
			StateAcc:   ins.Accounts[1],
		}, nil
	case "fulfill":
		if err := wantAccounts(ins, 2); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:  ProtocolSwift,
			Goal:      GoalFulfill,
			StateAcc:  ins.Accounts[0],
			WinnerAcc: ins.Accounts[1],
		}, nil
	case "settle":
		if err := wantAccounts(ins, 10); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:   ProtocolSwift,
			Goal:       GoalSettle,
			StateAcc:   ins.Accounts[0],
			DestAcc:    ins.Accounts[4],
			DestAssAcc: ins.Accounts[9],
		}, nil
	case "cancel":
		if err := wantAccounts(ins, 7); err != nil {
			return nil, err
		}
		return &Intent{
			Protocol:       ProtocolSwift,
			Goal:           GoalCancel,
			StateAcc:       ins.Accounts[0],
			WormholeMsgAcc: ins.Accounts[6],
		}, nil
	case "close":
		return swiftStateIntent(ins, GoalClose, 0)
	case "refund":
		return swiftStateIntent(ins, GoalRefund, 1)
	case "unlock":
		return swiftStateIntent(ins, GoalUnlock, 1)
	case "unlockBatch":
		return swiftStateIntent(ins, GoalUnlockBatch, 1)
	case "postUnlock":
		return swiftBatchIntent(ins, 10)
	case "postUnlockShim":
		return swiftBatchIntent(ins, 11)
	default:
		return nil, nil
	}
}

func swiftStateIntent(ins Instruction, goal Goal, idx int) (*Intent, error) {
	if err := wantAccounts(ins, idx+1); err != nil {
		return nil, err
	}
	return &Intent{
		Protocol: ProtocolSwift,
		Goal:     goal,
		StateAcc: ins.Accounts[idx],
	}, nil
}

// swiftBatchIntent collects the state accounts of a batched unlock, which
// follow the fixed accounts at the given offset.
func swiftBatchIntent(ins Instruction, from int) (*Intent, error) {
	if err := wantAccounts(ins, from+1); err != nil {
		return nil, err
	}
	return &Intent{
		Protocol:  ProtocolSwift,
		Goal:      GoalPostUnlock,
		StateAccs: ins.Accounts[from:],
	}, nil
}

func decodeInitOrder(ins Instruction) (*Intent, error) {
	data := ins.Data
	if len(data) < initOrderArgsLen || len(ins.Accounts) < 6 {
		return nil, errors.Wrapf(gerror.ErrDecode, "initOrder data %d accounts %d", len(data), len(ins.Accounts))
	}
	in := &Intent{
		Protocol:     ProtocolSwift,
		Goal:         GoalCreateOrder,
		UserWallet:   ins.Accounts[0],
		StateAcc:     ins.Accounts[2],
		MintAcc:      ins.Accounts[5],
		AmountInMin:  binary.LittleEndian.Uint64(data[0:8]),
		NativeInput:  data[8] == 1,
		FeeSubmit:    binary.LittleEndian.Uint64(data[9:17]),
		DestChain:    chain.ID(binary.LittleEndian.Uint16(data[49:51])),
		MinAmountOut: binary.LittleEndian.Uint64(data[83:91]),
		GasDrop:      binary.LittleEndian.Uint64(data[91:99]),
		FeeCancel:    binary.LittleEndian.Uint64(data[99:107]),
		FeeRefund:    binary.LittleEndian.Uint64(data[107:115]),
		Deadline:     binary.LittleEndian.Uint64(data[115:123]),
		ReferrerBps:  data[155],
		MayanBps:     data[156],
		AuctionMode:  data[157],
	}
	copy(in.DestAddress[:], data[17:49])
	copy(in.TokenOut[:], data[51:83])
	copy(in.ReferrerAddr[:], data[123:155])
	copy(in.RandomKey[:], data[158:190])
	return in, nil
}
