package intent

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// legacyConf tells, per opcode, where an instruction keeps its accounts and
// data fields. An index of -1 means the field is absent.
type legacyConf struct {
	agentIdx      int
	stateIdx      int
	stateNonceIdx int
	amountInIdx   int
	goal          Goal
}

// legacyDefaultConf is the fallback layout of wormhole-settled programs.
// Programs with a different account ordering override single opcodes in
// legacyProgramConf.
var legacyDefaultConf = map[uint8]legacyConf{
	100: {agentIdx: 0, stateIdx: 3, stateNonceIdx: 1, amountInIdx: -1, goal: GoalRegisterBridge},
	101: {agentIdx: 6, stateIdx: 4, stateNonceIdx: 2, amountInIdx: 3, goal: GoalRegisterBridge},
	108: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	110: {agentIdx: -1, stateIdx: 0, stateNonceIdx: 1, amountInIdx: -1, goal: GoalSwap},
	111: {agentIdx: -1, stateIdx: 0, stateNonceIdx: 1, amountInIdx: -1, goal: GoalSwap},
	112: {agentIdx: 0, stateIdx: 2, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	113: {agentIdx: 0, stateIdx: 2, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	114: {agentIdx: 0, stateIdx: 2, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	115: {agentIdx: 0, stateIdx: 2, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	116: {agentIdx: 0, stateIdx: 2, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
	120: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
	121: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
	122: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSettle},
	123: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSettle},
}

var legacyProgramConf = map[string]map[uint8]legacyConf{
	"FC4eXxkyrMPTjiYUpp4EAnkmwMbQyZ6NDCh1kfLn6vsf": {
		100: {agentIdx: 0, stateIdx: 3, stateNonceIdx: 1, amountInIdx: -1, goal: GoalRegisterBridge},
		101: {agentIdx: 14, stateIdx: 3, stateNonceIdx: 1, amountInIdx: 2, goal: GoalRegisterBridge},
		108: {agentIdx: 1, stateIdx: 0, stateNonceIdx: 1, amountInIdx: -1, goal: GoalSwap},
		120: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
		121: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
		122: {agentIdx: 11, stateIdx: 0, stateNonceIdx: 1, amountInIdx: -1, goal: GoalSettle},
		123: {agentIdx: 11, stateIdx: 0, stateNonceIdx: 1, amountInIdx: -1, goal: GoalSettle},
	},
	"8LPjGDbxhW4G2Q8S6FvdvUdfGWssgtqmvsc63bwNFA7E": {
		100: {agentIdx: 0, stateIdx: 3, stateNonceIdx: 1, amountInIdx: -1, goal: GoalRegisterBridge},
		101: {agentIdx: 6, stateIdx: 4, stateNonceIdx: 2, amountInIdx: 3, goal: GoalRegisterBridge},
		108: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSwap},
		120: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
		121: {agentIdx: 0, stateIdx: 1, stateNonceIdx: 1, amountInIdx: -1, goal: GoalBridge},
		122: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSettle},
		123: {agentIdx: 2, stateIdx: 1, stateNonceIdx: 2, amountInIdx: -1, goal: GoalSettle},
	},
}

// LegacyIntent adds the fields only wormhole-settled instructions carry.
type LegacyIntent struct {
	Intent
	// Agent is the wallet the instruction executed on behalf of, when
	// the layout exposes one.
	Agent string
	// StateNonce disambiguates several states derived from one wallet.
	StateNonce uint8
}

// DecodeLegacy decodes a wormhole-settled program instruction. Opcodes
// outside the indexed set decode to nil. A known opcode with too few
// accounts or data bytes is malformed.
func DecodeLegacy(ins Instruction) (*LegacyIntent, error) {
	if len(ins.Data) == 0 {
		return nil, errors.Wrap(gerror.ErrDecode, "empty instruction data")
	}
	op := ins.Data[0]
	conf, ok := legacyDefaultConf[op]
	if !ok {
		return nil, nil
	}
	if perProgram, ok := legacyProgramConf[ins.ProgramID]; ok {
		if c, ok := perProgram[op]; ok {
			conf = c
		}
	}

	in := &LegacyIntent{Intent: Intent{Protocol: ProtocolWhSwap, Goal: conf.goal}}
	if conf.agentIdx >= 0 {
		if len(ins.Accounts) <= conf.agentIdx {
			return nil, errors.Wrapf(gerror.ErrDecode, "opcode %d accounts %d, agent at %d", op, len(ins.Accounts), conf.agentIdx)
		}
		in.Agent = ins.Accounts[conf.agentIdx]
	}
	if len(ins.Accounts) <= conf.stateIdx {
		return nil, errors.Wrapf(gerror.ErrDecode, "opcode %d accounts %d, state at %d", op, len(ins.Accounts), conf.stateIdx)
	}
	in.StateAcc = ins.Accounts[conf.stateIdx]
	if len(ins.Data) <= conf.stateNonceIdx {
		return nil, errors.Wrapf(gerror.ErrDecode, "opcode %d data %d, nonce at %d", op, len(ins.Data), conf.stateNonceIdx)
	}
	in.StateNonce = ins.Data[conf.stateNonceIdx]
	if conf.amountInIdx >= 0 {
		if len(ins.Data) < conf.amountInIdx+8 {
			return nil, errors.Wrapf(gerror.ErrDecode, "opcode %d data %d, amount at %d", op, len(ins.Data), conf.amountInIdx)
		}
		in.AmountIn = binary.LittleEndian.Uint64(ins.Data[conf.amountInIdx : conf.amountInIdx+8])
	}
	return in, nil
}
