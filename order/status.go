package order

// Status is the lifecycle position of an order.
type Status string

// Wormhole-settled swap statuses.
const (
	StatusInitiatedOnEVM         Status = "INITIATED_ON_EVM"
	StatusTransferVaaSigned      Status = "TRANSFER_VAA_SIGNED"
	StatusSwapVaaSigned          Status = "SWAP_VAA_SIGNED"
	StatusSubmittedOnSolana      Status = "SUBMITTED_ON_SOLANA"
	StatusClaimedOnSolana        Status = "CLAIMED_ON_SOLANA"
	StatusSwappedOnSolana        Status = "SWAPPED_ON_SOLANA"
	StatusSettledOnSolana        Status = "SETTLED_ON_SOLANA"
	StatusRedeemSequenceReceived Status = "REDEEM_SEQUENCE_RECEIVED"
	StatusRefundSequenceReceived Status = "REFUND_SEQUENCE_RECEIVED"
	StatusRedeemVaaSigned        Status = "REDEEM_VAA_SIGNED"
	StatusRefundVaaSigned        Status = "REFUND_VAA_SIGNED"
	StatusRedeemedOnEVM          Status = "REDEEMED_ON_EVM"
	StatusRefundedOnEVM          Status = "REFUNDED_ON_EVM"
	StatusRefundedOnSolana       Status = "REFUNDED_ON_SOLANA"
)

// Circle-settled (mctp) swap statuses.
const (
	StatusInitiatedOnEVMMctp     Status = "INITIATED_ON_EVM_MCTP"
	StatusInitiatedOnSolanaMctp  Status = "INITIATED_ON_SOLANA_MCTP"
	StatusSubmittedOnSolanaMctp  Status = "SUBMITTED_ON_SOLANA_MCTP"
	StatusClaimedOnSolanaMctp    Status = "CLAIMED_ON_SOLANA_MCTP"
	StatusSwappedOnSolanaMctp    Status = "SWAPPED_ON_SOLANA_MCTP"
	StatusSettledOnSolanaMctp    Status = "SETTLED_ON_SOLANA_MCTP"
	StatusRefundedOnSolanaMctp   Status = "REFUNDED_ON_SOLANA_MCTP"
	StatusRedeemedWithFee        Status = "REDEEMED_WITH_FEE"
	StatusRedeemedWithLockedFee  Status = "REDEEMED_WITH_LOCKED_FEE"
	StatusMctpFeeUnlocked        Status = "MCTP_FEE_UNLOCKED"
)

// Auction-settled (swift) order statuses.
const (
	StatusOrderCreated   Status = "ORDER_CREATED"
	StatusOrderSubmitted Status = "ORDER_SUBMITTED"
	StatusOrderFulfilled Status = "ORDER_FULFILLED"
	StatusOrderSettled   Status = "ORDER_SETTLED"
	StatusOrderUnlocked  Status = "ORDER_UNLOCKED"
	StatusOrderCanceled  Status = "ORDER_CANCELED"
	StatusOrderRefunded  Status = "ORDER_REFUNDED"
	StatusOrderExpired   Status = "ORDER_EXPIRED"
)

var terminalStatuses = map[Status]struct{}{
	StatusSettledOnSolana:       {},
	StatusRedeemedOnEVM:         {},
	StatusRefundedOnEVM:         {},
	StatusRefundedOnSolana:      {},
	StatusSettledOnSolanaMctp:   {},
	StatusRefundedOnSolanaMctp:  {},
	StatusRedeemedWithFee:       {},
	StatusMctpFeeUnlocked:       {},
	StatusOrderSettled:          {},
	StatusOrderUnlocked:         {},
	StatusOrderRefunded:         {},
	StatusOrderExpired:          {},
}

// IsTerminal tells whether no follower will move the order any further.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// TerminalStatuses returns every terminal status, for storage filters.
func TerminalStatuses() []Status {
	out := make([]Status, 0, len(terminalStatuses))
	for s := range terminalStatuses {
		out = append(out, s)
	}
	return out
}

// legalFrom lists, per target status, the statuses an order may hold right
// before the transition. Optional steps show up as several predecessors of
// the same target.
var legalFrom = map[Status][]Status{
	// wormhole family
	StatusTransferVaaSigned:      {StatusInitiatedOnEVM},
	StatusSwapVaaSigned:          {StatusTransferVaaSigned},
	StatusSubmittedOnSolana:      {StatusSwapVaaSigned},
	StatusClaimedOnSolana:        {StatusSubmittedOnSolana},
	StatusSwappedOnSolana:        {StatusClaimedOnSolana},
	StatusSettledOnSolana:        {StatusSwappedOnSolana},
	StatusRedeemSequenceReceived: {StatusSwappedOnSolana, StatusClaimedOnSolana, StatusSwappedOnSolanaMctp, StatusClaimedOnSolanaMctp},
	StatusRefundSequenceReceived: {StatusClaimedOnSolana, StatusClaimedOnSolanaMctp},
	StatusRedeemVaaSigned:        {StatusRedeemSequenceReceived},
	StatusRefundVaaSigned:        {StatusRefundSequenceReceived},
	StatusRedeemedOnEVM:          {StatusRedeemVaaSigned},
	StatusRefundedOnEVM:          {StatusRefundVaaSigned},
	StatusRefundedOnSolana:       {StatusClaimedOnSolana},

	// mctp family
	StatusSubmittedOnSolanaMctp: {StatusInitiatedOnEVMMctp, StatusInitiatedOnSolanaMctp},
	StatusClaimedOnSolanaMctp:   {StatusSubmittedOnSolanaMctp, StatusInitiatedOnEVMMctp},
	StatusSwappedOnSolanaMctp:   {StatusClaimedOnSolanaMctp},
	StatusSettledOnSolanaMctp:   {StatusSwappedOnSolanaMctp, StatusClaimedOnSolanaMctp},
	StatusRefundedOnSolanaMctp:  {StatusClaimedOnSolanaMctp},
	StatusRedeemedWithFee:       {StatusInitiatedOnEVMMctp, StatusInitiatedOnSolanaMctp},
	StatusRedeemedWithLockedFee: {StatusInitiatedOnEVMMctp, StatusInitiatedOnSolanaMctp},
	StatusMctpFeeUnlocked:       {StatusRedeemedWithLockedFee},

	// swift family
	StatusOrderSubmitted: {StatusOrderCreated},
	StatusOrderFulfilled: {StatusOrderCreated, StatusOrderSubmitted},
	StatusOrderSettled:   {StatusOrderFulfilled},
	StatusOrderUnlocked:  {StatusOrderSettled, StatusOrderFulfilled},
	StatusOrderCanceled:  {StatusOrderCreated, StatusOrderSubmitted},
	StatusOrderRefunded:  {StatusOrderCanceled, StatusOrderExpired},
	StatusOrderExpired:   {StatusOrderCreated, StatusOrderSubmitted},
}

// CanTransition tells whether moving an order from one status to another is
// a legal step of its lifecycle.
func CanTransition(from, to Status) bool {
	for _, s := range legalFrom[to] {
		if s == from {
			return true
		}
	}
	return false
}
