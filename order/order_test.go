package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionWormhole(t *testing.T) {
	assert.True(t, CanTransition(StatusInitiatedOnEVM, StatusTransferVaaSigned))
	assert.True(t, CanTransition(StatusTransferVaaSigned, StatusSwapVaaSigned))
	assert.True(t, CanTransition(StatusSwappedOnSolana, StatusRedeemSequenceReceived))
	// the swap step is optional before a redeem
	assert.True(t, CanTransition(StatusClaimedOnSolana, StatusRedeemSequenceReceived))
	// but a refund never passes through the swap step
	assert.False(t, CanTransition(StatusSwappedOnSolana, StatusRefundSequenceReceived))

	// no skipping
	assert.False(t, CanTransition(StatusInitiatedOnEVM, StatusSubmittedOnSolana))
	// no going back
	assert.False(t, CanTransition(StatusRedeemedOnEVM, StatusRedeemVaaSigned))
}

func TestCanTransitionMctp(t *testing.T) {
	assert.True(t, CanTransition(StatusInitiatedOnEVMMctp, StatusClaimedOnSolanaMctp))
	assert.True(t, CanTransition(StatusClaimedOnSolanaMctp, StatusSwappedOnSolanaMctp))
	assert.True(t, CanTransition(StatusSwappedOnSolanaMctp, StatusSettledOnSolanaMctp))
	assert.True(t, CanTransition(StatusClaimedOnSolanaMctp, StatusSettledOnSolanaMctp))
	assert.True(t, CanTransition(StatusInitiatedOnEVMMctp, StatusRedeemedWithFee))
	assert.True(t, CanTransition(StatusRedeemedWithLockedFee, StatusMctpFeeUnlocked))
	assert.False(t, CanTransition(StatusRedeemedWithFee, StatusMctpFeeUnlocked))
}

func TestCanTransitionSwift(t *testing.T) {
	assert.True(t, CanTransition(StatusOrderCreated, StatusOrderFulfilled))
	assert.True(t, CanTransition(StatusOrderFulfilled, StatusOrderSettled))
	assert.True(t, CanTransition(StatusOrderSettled, StatusOrderUnlocked))
	assert.True(t, CanTransition(StatusOrderCanceled, StatusOrderRefunded))
	assert.False(t, CanTransition(StatusOrderSettled, StatusOrderRefunded))
}

func TestIsTerminal(t *testing.T) {
	terminals := []Status{
		StatusSettledOnSolana, StatusRedeemedOnEVM, StatusRefundedOnEVM,
		StatusSettledOnSolanaMctp, StatusRedeemedWithFee, StatusMctpFeeUnlocked,
		StatusOrderSettled, StatusOrderUnlocked, StatusOrderRefunded, StatusOrderExpired,
	}
	for _, s := range terminals {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []Status{StatusInitiatedOnEVM, StatusClaimedOnSolanaMctp, StatusOrderCreated, StatusRedeemedWithLockedFee} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestApplyPatch(t *testing.T) {
	o := &Order{Status: StatusClaimedOnSolana, ToAmount: ""}
	amount := "0.99"
	seq := int64(41)
	o.Apply(Patch{Status: StatusSwappedOnSolana, ToAmount: &amount, RedeemSequence: &seq})
	assert.Equal(t, StatusSwappedOnSolana, o.Status)
	assert.Equal(t, "0.99", o.ToAmount)
	assert.Equal(t, int64(41), o.RedeemSequence)
	// untouched members keep their value
	assert.Empty(t, o.Winner)
}
