package order

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
)

// Service discriminates the settlement rail of an order.
type Service string

// Settlement services.
const (
	ServiceWhSwap              Service = "WH_SWAP"
	ServiceMctpSwap            Service = "MCTP_SWAP"
	ServiceMctpBridge          Service = "MCTP_BRIDGE"
	ServiceMctpBridgeAndUnlock Service = "MCTP_BRIDGE_WITH_UNLOCK"
	ServiceSwiftSwap           Service = "SWIFT_SWAP"
)

// Order is one tracked cross-chain swap or bridge.
type Order struct {
	// ID is the stable identifier. For circle and auction settled
	// orders this is derived from the order hash, for wormhole settled
	// ones from the source transaction and transfer sequence.
	ID      string
	Service Service
	Status  Status

	Trader       string
	SourceChain  chain.ID
	SourceTxHash string
	DestChain    chain.ID

	FromToken       string
	FromTokenSymbol string
	FromAmount      string
	ToToken         string
	ToTokenSymbol   string
	ToAmount        string
	MinAmountOut    string

	OrderHash common.Hash
	// CctpNonce and CctpDomain bind a circle-settled order to its burn
	// message.
	CctpNonce  uint64
	CctpDomain uint32
	// TransferSequence is the wormhole sequence of the inbound transfer.
	TransferSequence int64
	// RedeemSequence is the wormhole sequence of the outbound redeem or
	// refund message, once one exists.
	RedeemSequence int64

	DestAddress  string
	ReferrerAddr string
	ReferrerBps  uint8
	MayanBps     uint8
	GasDrop      uint64
	RedeemFee    uint64
	RefundFee    uint64

	Deadline  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// StateAddr is the solana state (or ledger) account of the order.
	StateAddr string
	Winner    string

	// CustomPayload is the opaque payload forwarded to the receiver
	// contract, when the order carries one.
	CustomPayload []byte
}

// Patch carries the fields a single transition is allowed to touch. Nil
// members are left as they are.
type Patch struct {
	Status           Status
	ToAmount         *string
	TransferSequence *int64
	RedeemSequence   *int64
	Winner           *string
	StateAddr        *string
	SourceTxHash     *string
	OrderHash        *common.Hash
}

// Apply copies the patch onto the order.
func (o *Order) Apply(p Patch) {
	o.Status = p.Status
	if p.ToAmount != nil {
		o.ToAmount = *p.ToAmount
	}
	if p.TransferSequence != nil {
		o.TransferSequence = *p.TransferSequence
	}
	if p.RedeemSequence != nil {
		o.RedeemSequence = *p.RedeemSequence
	}
	if p.Winner != nil {
		o.Winner = *p.Winner
	}
	if p.StateAddr != nil {
		o.StateAddr = *p.StateAddr
	}
	if p.SourceTxHash != nil {
		o.SourceTxHash = *p.SourceTxHash
	}
	if p.OrderHash != nil {
		o.OrderHash = *p.OrderHash
	}
	o.UpdatedAt = time.Now()
}
