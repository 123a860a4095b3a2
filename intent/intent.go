// Package intent turns raw program instructions into structured intents, the
// protocol-level meaning of what a transaction asked a program to do.
package intent

import (
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/order"
)

// Protocol is the settlement protocol family an instruction belongs to.
type Protocol string

// Protocol families.
const (
	ProtocolMctp     Protocol = "MCTP"
	ProtocolMctpV2   Protocol = "MCTP_V2"
	ProtocolFastMctp Protocol = "FAST_MCTP"
	ProtocolSwift    Protocol = "SWIFT"
	ProtocolWhSwap   Protocol = "WH_SWAP"
)

// Goal is what the instruction wants to happen to an order.
type Goal string

// Goals.
const (
	GoalRegisterBridge Goal = "REGISTER_BRIDGE"
	GoalRegisterOrder  Goal = "REGISTER_ORDER"
	GoalCreateOrder    Goal = "CREATE_ORDER"
	GoalBridge         Goal = "BRIDGE"
	GoalBridgeLocked   Goal = "BRIDGE_LOCKED_FEE"
	GoalRedeem         Goal = "REDEEM"
	GoalUnlockFee      Goal = "UNLOCK_FEE"
	GoalSwap           Goal = "SWAP"
	GoalSettle         Goal = "SETTLE"
	GoalRefund         Goal = "REFUND"
	GoalFulfill        Goal = "FULFILL"
	GoalCancel         Goal = "CANCEL"
	GoalClose          Goal = "CLOSE"
	GoalUnlock         Goal = "UNLOCK"
	GoalUnlockBatch    Goal = "UNLOCK_BATCH"
	GoalPostUnlock     Goal = "POST_UNLOCK"
)

// DepositMode of a circle-settled deposit.
type DepositMode uint8

// Deposit modes.
const (
	DepositWithFee  DepositMode = 1
	DepositWithLock DepositMode = 2
	DepositSwap     DepositMode = 3
)

// Service maps the deposit mode onto the order service it opens.
func (m DepositMode) Service() order.Service {
	switch m {
	case DepositWithFee:
		return order.ServiceMctpBridge
	case DepositWithLock:
		return order.ServiceMctpBridgeAndUnlock
	default:
		return order.ServiceMctpSwap
	}
}

// Instruction is one already base58-decoded program instruction of a solana
// transaction.
type Instruction struct {
	ProgramID string
	// Name is the application-level instruction name, set on programs
	// with self-describing encodings. Opcode-keyed programs leave it
	// empty.
	Name     string
	Accounts []string
	Data     []byte
}

// Intent is the decoded meaning of one instruction. Only the fields the
// concrete goal carries are filled in, the rest stay zero.
type Intent struct {
	Protocol Protocol
	Goal     Goal

	// accounts of interest, base58 keys
	UserWallet       string
	LedgerAcc        string
	StateAcc         string
	MintAcc          string
	ReferrerAcc      string
	CircleMsgAcc     string
	WormholeMsgAcc   string
	FeeStateAcc      string
	CustomPayloadAcc string
	RelayerAcc       string
	WinnerAcc        string
	DestAcc          string
	DestAssAcc       string
	// StateAccs is filled by batch goals touching many states at once.
	StateAccs []string

	// decoded argument fields
	DestAddress  chain.Address
	GasDrop      uint64
	FeeRedeem    uint64
	FeeSolana    uint64
	DestDomain   uint32
	SourceDomain uint32
	DestChain    chain.ID
	DepositMode  DepositMode
	TokenOut     chain.Address
	ReferrerAddr chain.Address
	MinAmountOut uint64
	AmountInMin  uint64
	Deadline     uint64
	ReferrerBps  uint8
	MayanBps     uint8
	AuctionMode  uint8
	RandomKey    [32]byte
	FeeCancel    uint64
	FeeRefund    uint64
	FeeSubmit    uint64
	NativeInput  bool

	// CustomPayload is resolved from CustomPayloadAcc when the scanned
	// transaction also carries the payload-writer instruction.
	CustomPayload []byte

	// CircleMessage is the raw burn message an instruction carried
	// inline, when it did.
	CircleMessage []byte

	// AmountIn is filled by legacy instructions that carry the input
	// amount inline.
	AmountIn uint64
}

// InstructionNames lists the self-describing instruction names of a protocol
// family, for rpc clients that resolve anchor discriminators. Opcode-keyed
// families have none.
func InstructionNames(p Protocol) []string {
	switch p {
	case ProtocolMctpV2, ProtocolFastMctp:
		return []string{
			"initBridgeLedger", "initOrderLedger", "createOrder",
			"bridgeWithFee", "bridgeLockedFee", "settleOrder", "refundOrder",
			"flashSwapFinish", "unlockFee",
			"redeemWithFee", "redeemWithFeeShim", "redeemWithFeeCustomPayload",
			"createSimple",
		}
	case ProtocolSwift:
		return []string{
			"initOrder", "registerOrder", "fulfill", "settle", "cancel",
			"close", "refund", "unlock", "unlockBatch", "postUnlock", "postUnlockShim",
		}
	default:
		return nil
	}
}

// Extract decodes one instruction of the given protocol family. Instructions
// the family does not index decode to (nil, nil), malformed ones to an error.
func Extract(p Protocol, ins Instruction) (*Intent, error) {
	switch p {
	case ProtocolMctp:
		return DecodeMctp(ins)
	case ProtocolMctpV2, ProtocolFastMctp:
		return DecodeMctpV2(ins)
	case ProtocolSwift:
		return DecodeSwift(ins)
	case ProtocolWhSwap:
		li, err := DecodeLegacy(ins)
		if li == nil || err != nil {
			return nil, err
		}
		return &li.Intent, nil
	default:
		return nil, nil
	}
}
