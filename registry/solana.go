package registry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/orderhash"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/mayanlabs/swap-watcher/wire"
	"github.com/pkg/errors"
)

// ApplyIntent folds one decoded intent into the order set. Ledger and order
// initializations open orders, everything else advances the order the state
// account points at.
func (r *Registry) ApplyIntent(ctx context.Context, in *intent.Intent, txHash string) error {
	if in == nil {
		return nil
	}
	switch in.Goal {
	case intent.GoalRegisterBridge, intent.GoalRegisterOrder:
		switch in.Protocol {
		case intent.ProtocolSwift:
			return r.advance(ctx, in.StateAcc, order.StatusOrderSubmitted, order.Patch{})
		case intent.ProtocolWhSwap:
			return r.registerWhState(ctx, in, txHash)
		}
		return r.openLedgerOrder(ctx, in, txHash)
	case intent.GoalCreateOrder:
		if in.Protocol == intent.ProtocolSwift {
			return r.openSwiftOrder(ctx, in, txHash)
		}
		return r.advance(ctx, in.LedgerAcc, order.StatusSubmittedOnSolanaMctp,
			order.Patch{StateAddr: &in.StateAcc})
	case intent.GoalBridge, intent.GoalBridgeLocked:
		if in.Protocol == intent.ProtocolWhSwap {
			return nil
		}
		return r.advance(ctx, in.LedgerAcc, order.StatusSubmittedOnSolanaMctp, order.Patch{})
	case intent.GoalRedeem:
		return r.redeemBurn(ctx, in)
	case intent.GoalSwap:
		if in.Protocol == intent.ProtocolWhSwap {
			return nil
		}
		return r.advance(ctx, in.StateAcc, order.StatusSwappedOnSolanaMctp, order.Patch{})
	case intent.GoalSettle:
		switch in.Protocol {
		case intent.ProtocolSwift:
			return r.advance(ctx, in.StateAcc, order.StatusOrderSettled, order.Patch{})
		case intent.ProtocolWhSwap:
			// settle instructions only close out message accounts, the
			// state account already told where the swap ended up
			return nil
		}
		return r.advance(ctx, in.StateAcc, order.StatusSettledOnSolanaMctp, order.Patch{})
	case intent.GoalRefund:
		if in.Protocol == intent.ProtocolSwift {
			return r.advance(ctx, in.StateAcc, order.StatusOrderRefunded, order.Patch{})
		}
		return r.advance(ctx, in.StateAcc, order.StatusRefundedOnSolanaMctp, order.Patch{})
	case intent.GoalFulfill:
		return r.advance(ctx, in.StateAcc, order.StatusOrderFulfilled,
			order.Patch{Winner: &in.WinnerAcc})
	case intent.GoalCancel:
		return r.advance(ctx, in.StateAcc, order.StatusOrderCanceled, order.Patch{})
	case intent.GoalUnlock, intent.GoalUnlockBatch:
		return r.advance(ctx, in.StateAcc, order.StatusOrderUnlocked, order.Patch{})
	case intent.GoalPostUnlock:
		for _, state := range in.StateAccs {
			if err := r.advance(ctx, state, order.StatusOrderUnlocked, order.Patch{}); err != nil {
				log.Warnf("post unlock of %s: %v", state, err)
			}
		}
		return nil
	case intent.GoalClose, intent.GoalUnlockFee:
		// account bookkeeping, no order movement
		return nil
	default:
		return nil
	}
}

// openLedgerOrder opens a circle-settled order for a solana-side deposit.
func (r *Registry) openLedgerOrder(ctx context.Context, in *intent.Intent, txHash string) error {
	destChain := in.DestChain
	if destChain == 0 {
		c, err := chain.FromDomain(in.DestDomain)
		if err != nil {
			return err
		}
		destChain = c
	}

	o := &order.Order{
		ID:          "MCTP_SOL_" + in.LedgerAcc,
		Service:     in.DepositMode.Service(),
		Status:      order.StatusInitiatedOnSolanaMctp,
		Trader:      in.UserWallet,
		SourceChain: chain.Solana,
		DestChain:   destChain,
		GasDrop:     in.GasDrop,
		RedeemFee:   in.FeeRedeem,
		ReferrerBps: in.ReferrerBps,
		MayanBps:    intent.ProtocolBpsLedger(in.Protocol != intent.ProtocolMctp, in.ReferrerBps),
		StateAddr:   in.LedgerAcc,
		CreatedAt:   time.Now(),
	}
	if len(in.CustomPayload) > 0 {
		o.CustomPayload = in.CustomPayload
	}
	o.SourceTxHash = txHash
	if dest, err := in.DestAddress.ToNative(destChain); err == nil {
		o.DestAddress = dest
	}
	if in.Goal == intent.GoalRegisterOrder {
		o.Service = order.ServiceMctpSwap
		if in.Deadline > 0 {
			o.Deadline = time.Unix(int64(in.Deadline), 0)
		}
		toToken, err := r.tokens.GetCanonical(ctx, destChain, in.TokenOut)
		if err == nil {
			o.ToToken = toToken.Contract
			o.ToTokenSymbol = toToken.Symbol
			o.MinAmountOut = token.FormatUnits64(in.MinAmountOut, token.TruncateDecimals(toToken.Decimals))
		} else if !errors.Is(err, gerror.ErrUnknownToken) {
			return err
		}
	} else if usdc := token.NativeUSDC(destChain); usdc != nil {
		o.ToToken = usdc.Contract
		o.ToTokenSymbol = usdc.Symbol
	}

	if err := r.storage.AddOrder(ctx, o); err != nil {
		return err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered order %s from ledger %s", o.ID, in.LedgerAcc)
	return nil
}

// nativeSolMint stands in for native sol in order preimages, locked lamports
// have no mint of their own.
const nativeSolMint = "11111111111111111111111111111111"

// swiftOrderHash rebuilds the hash the auction program derived the state
// account from.
func swiftOrderHash(in *intent.Intent) (common.Hash, error) {
	trader, err := chain.FromNative(in.UserWallet, chain.Solana)
	if err != nil {
		return common.Hash{}, err
	}
	mint := in.MintAcc
	if in.NativeInput {
		mint = nativeSolMint
	}
	tokenIn, err := chain.FromNative(mint, chain.Solana)
	if err != nil {
		return common.Hash{}, err
	}
	preimage, err := orderhash.BuildSwift(orderhash.SwiftFields{
		Trader:       trader,
		SourceChain:  chain.Solana,
		TokenIn:      tokenIn,
		DestAddr:     in.DestAddress,
		DestChain:    in.DestChain,
		TokenOut:     in.TokenOut,
		MinAmountOut: in.MinAmountOut,
		GasDrop:      in.GasDrop,
		CancelFee:    in.FeeCancel,
		RefundFee:    in.FeeRefund,
		Deadline:     in.Deadline,
		ReferrerAddr: in.ReferrerAddr,
		ReferrerBps:  in.ReferrerBps,
		MayanBps:     in.MayanBps,
		AuctionMode:  in.AuctionMode,
		RandomKey:    in.RandomKey,
	})
	if err != nil {
		return common.Hash{}, err
	}
	return orderhash.Digest(preimage), nil
}

// openSwiftOrder opens an auction-settled order for an initOrder instruction.
func (r *Registry) openSwiftOrder(ctx context.Context, in *intent.Intent, txHash string) error {
	o := &order.Order{
		ID:           "SWIFT_SOL_" + in.StateAcc,
		Service:      order.ServiceSwiftSwap,
		Status:       order.StatusOrderCreated,
		Trader:       in.UserWallet,
		SourceChain:  chain.Solana,
		SourceTxHash: txHash,
		DestChain:    in.DestChain,
		GasDrop:      in.GasDrop,
		RefundFee:    in.FeeRefund,
		ReferrerBps:  in.ReferrerBps,
		MayanBps:     in.MayanBps,
		StateAddr:    in.StateAcc,
		CreatedAt:    time.Now(),
	}
	if hash, err := swiftOrderHash(in); err == nil {
		o.OrderHash = hash
		o.ID = "SWIFT_" + hash.Hex()
	} else {
		log.Debugf("order behind state %s has no reconstructible hash: %v", in.StateAcc, err)
	}
	if in.Deadline > 0 {
		o.Deadline = time.Unix(int64(in.Deadline), 0)
	}
	if dest, err := in.DestAddress.ToNative(in.DestChain); err == nil {
		o.DestAddress = dest
	}
	toToken, err := r.tokens.GetCanonical(ctx, in.DestChain, in.TokenOut)
	if err == nil {
		o.ToToken = toToken.Contract
		o.ToTokenSymbol = toToken.Symbol
		o.MinAmountOut = token.FormatUnits64(in.MinAmountOut, token.TruncateDecimals(toToken.Decimals))
	} else if !errors.Is(err, gerror.ErrUnknownToken) {
		return err
	}

	if err := r.storage.AddOrder(ctx, o); err != nil {
		return err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered order %s from state %s", o.ID, in.StateAcc)
	return nil
}

// registerWhState opens or advances a wormhole-settled order from its live
// state account. The register instruction fires after the claim, so the
// account already tells how far the swap has come.
func (r *Registry) registerWhState(ctx context.Context, in *intent.Intent, txHash string) error {
	data, err := r.solana.GetAccountData(ctx, in.StateAcc)
	if err != nil {
		return err
	}
	state, err := wire.ParseSwapState(data)
	if err != nil {
		return err
	}
	status, seq := whStatus(state)

	if existing, err := r.storage.GetOrderByStateAddr(ctx, in.StateAcc); err == nil {
		return r.transition(ctx, existing, status, order.Patch{RedeemSequence: seq})
	} else if !errors.Is(err, gerror.ErrStorageNotFound) {
		return err
	}

	o := &order.Order{
		ID:           "WH_SOL_" + in.StateAcc,
		Service:      order.ServiceWhSwap,
		Status:       status,
		SourceChain:  state.SourceChain,
		SourceTxHash: txHash,
		DestChain:    state.DestChain,
		RedeemFee:    uint64(state.RedeemFee),
		RefundFee:    uint64(state.RefundFee),
		ReferrerBps:  state.ReferrerBps,
		MayanBps:     state.MayanBps,
		StateAddr:    in.StateAcc,
		CreatedAt:    time.Now(),
	}
	if seq != nil {
		o.RedeemSequence = *seq
	}
	if trader, err := state.SourceAddr.ToNative(state.SourceChain); err == nil {
		o.Trader = trader
	}
	if dest, err := state.DestAddr.ToNative(state.DestChain); err == nil {
		o.DestAddress = dest
	}
	if state.Deadline > 0 {
		// wormhole-settled states keep the deadline in milliseconds
		o.Deadline = time.UnixMilli(state.Deadline)
	}
	fromToken, err := r.tokens.GetCanonical(ctx, state.SourceChain, state.FromToken)
	if err == nil {
		o.FromToken = fromToken.Contract
		o.FromTokenSymbol = fromToken.Symbol
		if amountIn, ok := state.AmountIn(); ok {
			o.FromAmount = token.FormatUnits64(uint64(amountIn), token.TruncateDecimals(fromToken.Decimals))
		}
	} else if !errors.Is(err, gerror.ErrUnknownToken) {
		return err
	}
	toToken, err := r.tokens.GetCanonical(ctx, state.DestChain, state.ToToken)
	if err == nil {
		o.ToToken = toToken.Contract
		o.ToTokenSymbol = toToken.Symbol
		o.MinAmountOut = token.FormatUnits64(uint64(state.AmountOutMin), token.TruncateDecimals(toToken.Decimals))
		if amountOut, ok := state.AmountOut(); ok {
			o.ToAmount = token.FormatUnits64(uint64(amountOut), token.TruncateDecimals(toToken.Decimals))
		}
	} else if !errors.Is(err, gerror.ErrUnknownToken) {
		return err
	}

	if err := r.storage.AddOrder(ctx, o); err != nil {
		return err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered order %s from state %s at %s", o.ID, in.StateAcc, status)
	return nil
}

// whStatus maps a live swap state onto the order lifecycle. Outcomes that
// leave solana also yield the sequence of the outbound message.
func whStatus(s *wire.SwapState) (order.Status, *int64) {
	switch s.Status {
	case wire.StateSwapDone:
		return order.StatusSwappedOnSolana, nil
	case wire.StateDoneSwapped:
		if s.DestChain == chain.Solana {
			return order.StatusSettledOnSolana, nil
		}
		seq, _ := s.RedeemSequence()
		return order.StatusRedeemSequenceReceived, &seq
	case wire.StateDoneNotSwapped:
		if s.SourceChain == chain.Solana {
			return order.StatusRefundedOnSolana, nil
		}
		seq, _ := s.RedeemSequence()
		return order.StatusRefundSequenceReceived, &seq
	default:
		return order.StatusClaimedOnSolana, nil
	}
}

// redeemBurn marks a circle-settled order redeemed. The redeem instruction
// carries the burn message inline, which is the same bytes the order was
// opened from on the source side.
func (r *Registry) redeemBurn(ctx context.Context, in *intent.Intent) error {
	msg, err := wire.ParseCircleMessage(in.CircleMessage)
	if err != nil {
		return err
	}
	o, err := r.storage.GetOrder(ctx, burnOrderID(msg))
	if err != nil {
		return err
	}
	next := order.StatusRedeemedWithFee
	if o.Service == order.ServiceMctpBridgeAndUnlock {
		next = order.StatusRedeemedWithLockedFee
	}
	return r.transition(ctx, o, next, order.Patch{})
}

// advance moves the order behind a state account to the given status.
func (r *Registry) advance(ctx context.Context, stateAddr string, next order.Status, patch order.Patch) error {
	if stateAddr == "" {
		return nil
	}
	o, err := r.storage.GetOrderByStateAddr(ctx, stateAddr)
	if err != nil {
		if errors.Is(err, gerror.ErrStorageNotFound) {
			log.Debugf("no order behind state %s, skipping %s", stateAddr, next)
			return nil
		}
		return err
	}
	return r.transition(ctx, o, next, patch)
}

func (r *Registry) transition(ctx context.Context, o *order.Order, next order.Status, patch order.Patch) error {
	if o.Status == next {
		return nil
	}
	if !order.CanTransition(o.Status, next) {
		log.Warnf("order %s cannot move %s -> %s", o.ID, o.Status, next)
		return nil
	}
	patch.Status = next
	ok, err := r.storage.UpdateOrderStatus(ctx, o.ID, o.Status, patch)
	if err != nil {
		return err
	}
	if !ok {
		log.Debugf("order %s moved concurrently, leaving it as is", o.ID)
		return nil
	}
	metrics.RecordOrderTransition(string(o.Service), string(next))
	return nil
}
