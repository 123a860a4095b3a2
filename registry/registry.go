// Package registry creates and advances orders from on-chain observations:
// burn messages seen on a source chain open orders, program intents seen on
// solana move them.
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

// storageInterface is the slice of order storage the registry needs.
type storageInterface interface {
	AddOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetOrderByStateAddr(ctx context.Context, stateAddr string) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, expected order.Status, patch order.Patch) (bool, error)
}

// accountReader reads live account data from a solana rpc node.
type accountReader interface {
	GetAccountData(ctx context.Context, address string) ([]byte, error)
}

// Registry opens and advances orders.
type Registry struct {
	storage storageInterface
	tokens  *token.Directory
	solana  accountReader
}

// NewRegistry creates a new registry.
func NewRegistry(storage storageInterface, tokens *token.Directory, solana accountReader) *Registry {
	return &Registry{storage: storage, tokens: tokens, solana: solana}
}

// ProcessBurn opens an order for a burn message observed on an evm source
// chain. A trailing hook refines the goal, without one the deposit is a
// plain bridge.
func (r *Registry) ProcessBurn(ctx context.Context, sourceTxHash string, trader string,
	msg *wire.CircleMessage, hook wire.Hook) (*order.Order, error) {
	sourceChain, err := chain.FromDomain(msg.SourceDomain)
	if err != nil {
		return nil, err
	}
	destChain, err := chain.FromDomain(msg.DestDomain)
	if err != nil {
		return nil, err
	}

	fromToken, err := r.tokens.GetCanonical(ctx, sourceChain, msg.BurnToken)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:           burnOrderID(msg),
		Service:      order.ServiceMctpBridge,
		Status:       initiatedStatus(sourceChain),
		Trader:       trader,
		SourceChain:  sourceChain,
		SourceTxHash: sourceTxHash,
		DestChain:    destChain,
		FromToken:    fromToken.Contract,
		FromAmount:   token.FormatUnits64(msg.Amount, fromToken.Decimals),
		CctpNonce:    msg.Nonce,
		CctpDomain:   msg.SourceDomain,
		CreatedAt:    time.Now(),
	}
	o.FromTokenSymbol = fromToken.Symbol

	switch h := hook.(type) {
	case wire.BridgeHook:
		o.Service = order.ServiceMctpBridge
		if err := r.applyBridgeHook(ctx, o, destChain, h); err != nil {
			return nil, err
		}
	case wire.OrderHook:
		o.Service = order.ServiceMctpSwap
		if err := r.applyOrderHook(ctx, o, destChain, h); err != nil {
			return nil, err
		}
		o.MayanBps = intent.ProtocolBpsV1(h.ReferrerBps)
		if traderAddr, err := chain.FromNative(trader, sourceChain); err == nil {
			preimage, err := orderhash.BuildV1(orderhash.Fields{
				Trader:       traderAddr,
				SourceChain:  sourceChain,
				TokenIn:      msg.BurnToken,
				AmountIn:     msg.Amount,
				DestAddr:     h.DestAddr,
				DestChain:    destChain,
				TokenOut:     h.TokenOut,
				MinAmountOut: h.MinAmountOut,
				GasDrop:      h.GasDrop,
				RedeemFee:    h.RedeemFee,
				Deadline:     h.Deadline,
				ReferrerAddr: h.ReferrerAddr,
				ReferrerBps:  h.ReferrerBps,
				MayanBps:     o.MayanBps,
				CctpNonce:    msg.Nonce,
				CctpDomain:   msg.SourceDomain,
			})
			if err != nil {
				return nil, err
			}
			o.OrderHash = orderhash.Digest(preimage)
		} else {
			log.Debugf("trader %q has no canonical form on %s, leaving the order hash unset", trader, sourceChain.Name())
		}
	case nil:
		if dest, err := msg.Recipient.ToNative(destChain); err == nil {
			o.DestAddress = dest
		}
		if usdc := token.NativeUSDC(destChain); usdc != nil {
			o.ToToken = usdc.Contract
			o.ToTokenSymbol = usdc.Symbol
		}
	}

	if err := r.storage.AddOrder(ctx, o); err != nil {
		return nil, err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered order %s, %s %s -> %s", o.ID, o.Service, sourceChain.Name(), destChain.Name())
	return o, nil
}

// ProcessFastBurn opens an order for a fast burn message. The hook is
// mandatory on this rail and the order commits to a hash the destination
// side can be checked against.
func (r *Registry) ProcessFastBurn(ctx context.Context, sourceTxHash string, trader string,
	msg *wire.FastCircleMessage) (*order.Order, error) {
	hook, err := wire.ParseMayanHook(msg.HookData)
	if err != nil {
		return nil, err
	}
	sourceChain, err := chain.FromDomain(msg.SourceDomain)
	if err != nil {
		return nil, err
	}
	destChain, err := chain.FromDomain(msg.DestDomain)
	if err != nil {
		return nil, err
	}
	fromToken, err := r.tokens.GetCanonical(ctx, sourceChain, msg.BurnToken)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Service:      order.ServiceMctpBridge,
		Status:       initiatedStatus(sourceChain),
		Trader:       trader,
		SourceChain:  sourceChain,
		SourceTxHash: sourceTxHash,
		DestChain:    destChain,
		FromToken:    fromToken.Contract,
		FromAmount:   token.FormatUnits64(msg.Amount, fromToken.Decimals),
		CctpDomain:   msg.SourceDomain,
		CreatedAt:    time.Now(),
	}
	o.FromTokenSymbol = fromToken.Symbol

	switch h := hook.(type) {
	case wire.BridgeHook:
		o.MayanBps = intent.ProtocolBpsV2(h.ReferrerBps)
		if err := r.applyBridgeHook(ctx, o, destChain, h); err != nil {
			return nil, err
		}
	case wire.OrderHook:
		o.Service = order.ServiceMctpSwap
		o.MayanBps = intent.ProtocolBpsV2(h.ReferrerBps)
		if err := r.applyOrderHook(ctx, o, destChain, h); err != nil {
			return nil, err
		}
		fields := orderhash.Fields{
			Trader:       msg.MessageSender,
			SourceChain:  sourceChain,
			TokenIn:      msg.BurnToken,
			AmountIn:     msg.Amount,
			DestAddr:     h.DestAddr,
			DestChain:    destChain,
			TokenOut:     h.TokenOut,
			MinAmountOut: h.MinAmountOut,
			GasDrop:      h.GasDrop,
			RedeemFee:    h.RedeemFee,
			Deadline:     h.Deadline,
			ReferrerAddr: h.ReferrerAddr,
			ReferrerBps:  h.ReferrerBps,
			MayanBps:     o.MayanBps,
			CctpDomain:   msg.SourceDomain,
			PayloadType:  h.PayloadType,
		}
		preimage, err := orderhash.BuildV2(fields)
		if err != nil {
			return nil, err
		}
		o.OrderHash = orderhash.Digest(preimage)
	}

	if o.ID == "" {
		o.ID = fastBurnOrderID(msg, o.OrderHash)
	}
	if err := r.storage.AddOrder(ctx, o); err != nil {
		return nil, err
	}
	metrics.RecordOrderCreated(string(o.Service))
	log.Infof("registered fast order %s, %s %s -> %s", o.ID, o.Service, sourceChain.Name(), destChain.Name())
	return o, nil
}

// VerifyOrderHash checks a carried wire hash against the one the order was
// opened with.
func (r *Registry) VerifyOrderHash(o *order.Order, carried common.Hash) error {
	if o.OrderHash == (common.Hash{}) || carried == o.OrderHash {
		return nil
	}
	return errors.Wrapf(gerror.ErrOrderHashMismatch, "order %s carries %s, expected %s",
		o.ID, carried.Hex(), o.OrderHash.Hex())
}

func (r *Registry) applyBridgeHook(ctx context.Context, o *order.Order, destChain chain.ID, h wire.BridgeHook) error {
	dest, err := h.DestAddr.ToNative(destChain)
	if err != nil {
		return err
	}
	o.DestAddress = dest
	o.GasDrop = h.GasDrop
	o.RedeemFee = h.RedeemFee
	o.ReferrerBps = h.ReferrerBps
	if ref, err := h.ReferrerAddr.ToNative(destChain); err == nil {
		o.ReferrerAddr = ref
	}
	if h.CustomPayload != ([32]byte{}) {
		o.CustomPayload = h.CustomPayload[:]
	}
	if usdc := token.NativeUSDC(destChain); usdc != nil {
		o.ToToken = usdc.Contract
		o.ToTokenSymbol = usdc.Symbol
	}
	return nil
}

func (r *Registry) applyOrderHook(ctx context.Context, o *order.Order, destChain chain.ID, h wire.OrderHook) error {
	dest, err := h.DestAddr.ToNative(destChain)
	if err != nil {
		return err
	}
	o.DestAddress = dest
	o.GasDrop = h.GasDrop
	o.RedeemFee = h.RedeemFee
	o.RefundFee = h.RefundFee
	o.ReferrerBps = h.ReferrerBps
	if h.Deadline > 0 {
		o.Deadline = time.Unix(int64(h.Deadline), 0)
	}
	if ref, err := h.ReferrerAddr.ToNative(destChain); err == nil {
		o.ReferrerAddr = ref
	}
	toToken, err := r.tokens.GetCanonical(ctx, destChain, h.TokenOut)
	if err != nil {
		if !errors.Is(err, gerror.ErrUnknownToken) {
			return err
		}
		o.ToToken = h.TokenOut.Hex()
	} else {
		o.ToToken = toToken.Contract
		o.ToTokenSymbol = toToken.Symbol
		o.MinAmountOut = token.FormatUnits64(h.MinAmountOut, token.TruncateDecimals(toToken.Decimals))
	}
	return nil
}

func initiatedStatus(sourceChain chain.ID) order.Status {
	if sourceChain == chain.Solana {
		return order.StatusInitiatedOnSolanaMctp
	}
	return order.StatusInitiatedOnEVMMctp
}

func burnOrderID(msg *wire.CircleMessage) string {
	return "MCTP_" + orderhash.Digest(msg.Marshal()).Hex()
}

func fastBurnOrderID(msg *wire.FastCircleMessage, hash common.Hash) string {
	if hash != (common.Hash{}) {
		return "FAST_" + hash.Hex()
	}
	return "FAST_" + orderhash.Digest(msg.HookData).Hex()
}
