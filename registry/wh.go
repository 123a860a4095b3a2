package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/etherman"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/mayanlabs/swap-watcher/wire"
)

// whSource adds the wormhole publications of a receipt to the burn intake.
type whSource interface {
	evmSource
	SwapPublications(receipt *types.Receipt) (transfer, swap *etherman.PublishedMessage, err error)
}

// RegisterWhSwap opens a wormhole-settled order for the transfer and swap
// messages one evm transaction published. Transactions without the pair open
// nothing.
func (r *Registry) RegisterWhSwap(ctx context.Context, client whSource, sourceChain chain.ID,
	txHash common.Hash, trader string) (*order.Order, error) {
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	transfer, swap, err := client.SwapPublications(receipt)
	if err != nil {
		return nil, err
	}
	if transfer == nil || swap == nil {
		return nil, nil
	}
	tp, err := wire.ParseTransferPayload(transfer.Payload)
	if err != nil {
		return nil, err
	}
	sp, err := wire.ParseSwapPayload(swap.Payload)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:               fmt.Sprintf("WH_%s_%d", txHash.Hex(), transfer.Sequence),
		Service:          order.ServiceWhSwap,
		Status:           order.StatusInitiatedOnEVM,
		Trader:           trader,
		SourceChain:      sourceChain,
		SourceTxHash:     txHash.Hex(),
		DestChain:        sp.TargetChain,
		TransferSequence: transfer.Sequence,
		GasDrop:          sp.GasDrop,
		RedeemFee:        sp.RedeemFee,
		RefundFee:        sp.RefundFee,
		CreatedAt:        time.Now(),
	}
	if sp.Deadline > 0 {
		// swap payloads keep the deadline in seconds
		o.Deadline = time.Unix(int64(sp.Deadline), 0)
	}
	if dest, err := sp.TargetAddress.ToNative(sp.TargetChain); err == nil {
		o.DestAddress = dest
	}
	if ref, err := sp.Referrer.ToNative(sp.TargetChain); err == nil {
		o.ReferrerAddr = ref
	}
	fromToken, err := r.tokens.GetCanonical(ctx, tp.TokenChain, tp.TokenAddress)
	if err != nil {
		return nil, err
	}
	o.FromToken = fromToken.Contract
	o.FromTokenSymbol = fromToken.Symbol
	// transfer amounts arrive normalized to at most 8 decimals
	o.FromAmount = token.FormatUnits64(tp.Amount.Uint64(), token.TruncateDecimals(fromToken.Decimals))
	toToken, err := r.tokens.GetCanonical(ctx, sp.TokenChain, sp.TokenAddress)
	if err != nil {
		return nil, err
	}
	o.ToToken = toToken.Contract
	o.ToTokenSymbol = toToken.Symbol
	o.MinAmountOut = token.FormatUnits64(sp.AmountMin, token.TruncateDecimals(toToken.Decimals))

	if err := r.storage.AddOrder(ctx, o); err != nil {
		return nil, err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered order %s, %s %s -> %s", o.ID, o.Service, sourceChain.Name(), sp.TargetChain.Name())
	return o, nil
}
