// Package follower drives in-flight orders to a terminal status, one
// lifecycle step at a time. Every step is polled with a bounded retry
// budget and applied to storage conditionally on the previous status, so
// several watcher instances can follow the same order without double
// writes.
package follower

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/mayanlabs/swap-watcher/wire"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Follower moves orders through their lifecycle.
type Follower struct {
	cfg      Config
	storage  StorageInterface
	solana   SolanaClient
	evm      map[chain.ID]EVMClient
	attester AttestationService
	tokens   *token.Directory
}

// NewFollower creates a new follower.
func NewFollower(cfg Config, storage StorageInterface, solana SolanaClient,
	evm map[chain.ID]EVMClient, attester AttestationService, tokens *token.Directory) *Follower {
	return &Follower{
		cfg:      cfg,
		storage:  storage,
		solana:   solana,
		evm:      evm,
		attester: attester,
		tokens:   tokens,
	}
}

// Start runs the monitoring loop until the context is canceled. Each round
// picks up every unfinished order and follows it.
func (f *Follower) Start(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.FrequencyToMonitorOrders.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.monitorOrders(ctx)
		}
	}
}

func (f *Follower) monitorOrders(ctx context.Context) {
	pending, err := f.storage.GetUnfinishedOrders(ctx)
	if err != nil {
		log.Errorf("failed to get unfinished orders: %v", err)
		return
	}
	byService := make(map[order.Service]int)
	for _, o := range pending {
		byService[o.Service]++
	}
	for service, count := range byService {
		metrics.RecordPendingOrders(string(service), count)
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.NumberOfParallelOrders)
	for _, o := range pending {
		o := o
		g.Go(func() error {
			if err := f.Follow(gCtx, o); err != nil {
				log.Errorf("order %s: follow stopped at %s: %v", o.ID, o.Status, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Follow drives one order until it reaches a terminal status, its deadline
// passes, or a step exhausts the retry budget.
func (f *Follower) Follow(ctx context.Context, o *order.Order) error {
	log.Infof("following order %s, service %s, status %s", o.ID, o.Service, o.Status)
	for !o.Status.IsTerminal() {
		if f.pastDeadline(o) {
			// auction orders expire outright, a refund instruction can
			// still move them on later
			if order.CanTransition(o.Status, order.StatusOrderExpired) {
				if err := f.transition(ctx, o, order.Patch{Status: order.StatusOrderExpired}); err != nil {
					return err
				}
				metrics.RecordOrderTransition(string(o.Service), string(o.Status))
				log.Infof("order %s passed its deadline, expired", o.ID)
				continue
			}
			log.Infof("order %s passed its deadline at %s, parking", o.ID, o.Status)
			return nil
		}
		prev := o.Status
		if err := f.step(ctx, o); err != nil {
			return err
		}
		if o.Status != prev {
			metrics.RecordOrderTransition(string(o.Service), string(o.Status))
			log.Infof("order %s moved %s -> %s", o.ID, prev, o.Status)
		}
	}
	if !o.CreatedAt.IsZero() {
		metrics.RecordOrderWaitTime(string(o.Service), time.Since(o.CreatedAt))
	}
	return nil
}

func (f *Follower) pastDeadline(o *order.Order) bool {
	if o.Deadline.IsZero() {
		return false
	}
	return time.Now().After(o.Deadline.Add(f.cfg.DeadlineGrace.Duration))
}

func (f *Follower) step(ctx context.Context, o *order.Order) error {
	switch o.Status {
	case order.StatusInitiatedOnEVM:
		return f.waitTransferSigned(ctx, o)
	case order.StatusTransferVaaSigned:
		return f.waitSwapSigned(ctx, o)
	case order.StatusSwapVaaSigned:
		return f.waitSubmitted(ctx, o)
	case order.StatusInitiatedOnEVMMctp, order.StatusInitiatedOnSolanaMctp:
		if o.Service == order.ServiceMctpBridge || o.Service == order.ServiceMctpBridgeAndUnlock {
			return f.waitBridgeRedeemed(ctx, o)
		}
		return f.waitSubmitted(ctx, o)
	case order.StatusSubmittedOnSolana, order.StatusSubmittedOnSolanaMctp:
		return f.waitClaimed(ctx, o)
	case order.StatusClaimedOnSolana, order.StatusClaimedOnSolanaMctp:
		return f.waitOutcome(ctx, o)
	case order.StatusSwappedOnSolana, order.StatusSwappedOnSolanaMctp:
		return f.waitSettlement(ctx, o)
	case order.StatusRedeemSequenceReceived:
		return f.waitOutboundSigned(ctx, o, order.StatusRedeemVaaSigned)
	case order.StatusRefundSequenceReceived:
		return f.waitOutboundSigned(ctx, o, order.StatusRefundVaaSigned)
	case order.StatusRedeemVaaSigned:
		return f.waitCompletedOnEVM(ctx, o, order.StatusRedeemedOnEVM, o.DestChain)
	case order.StatusRefundVaaSigned:
		return f.waitCompletedOnEVM(ctx, o, order.StatusRefundedOnEVM, o.SourceChain)
	case order.StatusRedeemedWithLockedFee:
		return f.waitFeeUnlocked(ctx, o)
	default:
		return errors.Errorf("no follower step for status %s", o.Status)
	}
}

// poll runs fn every RetryInterval until it reports done, up to RetryNumber
// times. fn returning ErrDataUnavailable counts as a miss, any other error
// stops the poll.
func (f *Follower) poll(ctx context.Context, step string, fn func(context.Context) (bool, error)) error {
	for i := 0; i < f.cfg.RetryNumber; i++ {
		done, err := fn(ctx)
		if err != nil && !errors.Is(err, gerror.ErrDataUnavailable) {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.cfg.RetryInterval.Duration):
		}
	}
	metrics.RecordFollowerTimeout(step)
	return errors.Wrap(gerror.ErrFollowerTimeout, step)
}

// transition applies the patch conditionally on the status the follower has
// seen last. A lost race is not an error, the order is reloaded instead.
func (f *Follower) transition(ctx context.Context, o *order.Order, patch order.Patch) error {
	if !order.CanTransition(o.Status, patch.Status) {
		return errors.Errorf("illegal transition %s -> %s for order %s", o.Status, patch.Status, o.ID)
	}
	applied, err := f.storage.UpdateOrderStatus(ctx, o.ID, o.Status, patch)
	if err != nil {
		return err
	}
	if !applied {
		fresh, err := f.storage.GetOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		log.Debugf("order %s already moved to %s elsewhere", o.ID, fresh.Status)
		*o = *fresh
		return nil
	}
	o.Apply(patch)
	return nil
}

// checkSourceReorg re-derives the transfer sequence from the source receipt.
// A changed sequence supersedes the one the order was created with.
func (f *Follower) checkSourceReorg(ctx context.Context, o *order.Order) error {
	client, ok := f.evm[o.SourceChain]
	if !ok {
		return nil
	}
	seq, err := client.TransferSequence(ctx, common.HexToHash(o.SourceTxHash))
	if err != nil {
		if errors.Is(err, gerror.ErrDataUnavailable) {
			return nil
		}
		return err
	}
	if seq != o.TransferSequence {
		log.Warnf("order %s transfer sequence moved %d -> %d after a reorg, superseding",
			o.ID, o.TransferSequence, seq)
		o.TransferSequence = seq
		applied, err := f.storage.UpdateOrderStatus(ctx, o.ID, o.Status,
			order.Patch{Status: o.Status, TransferSequence: &seq})
		if err != nil {
			return err
		}
		if !applied {
			log.Debugf("order %s sequence supersede lost the race", o.ID)
		}
	}
	return nil
}

func (f *Follower) waitTransferSigned(ctx context.Context, o *order.Order) error {
	return f.pollSigned(ctx, o, "transfer vaa", o.TransferSequence, order.StatusTransferVaaSigned, true)
}

func (f *Follower) waitSwapSigned(ctx context.Context, o *order.Order) error {
	// the swap message follows the transfer on the same emitter
	return f.pollSigned(ctx, o, "swap vaa", o.TransferSequence+1, order.StatusSwapVaaSigned, false)
}

func (f *Follower) pollSigned(ctx context.Context, o *order.Order, step string,
	sequence int64, next order.Status, reorgCheck bool) error {
	var emitterAddr chain.Address
	if o.StateAddr != "" {
		var err error
		emitterAddr, err = chain.FromNative(o.StateAddr, chain.Solana)
		if err != nil {
			return err
		}
	}
	err := f.poll(ctx, step, func(ctx context.Context) (bool, error) {
		if reorgCheck {
			if err := f.checkSourceReorg(ctx, o); err != nil {
				return false, err
			}
			sequence = o.TransferSequence
		}
		_, err := f.attester.GetSignedMessage(ctx, o.SourceChain, emitterAddr, sequence)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

// waitSubmitted waits until the state account of the order shows up on
// solana.
func (f *Follower) waitSubmitted(ctx context.Context, o *order.Order) error {
	next := order.StatusSubmittedOnSolana
	if o.Status != order.StatusSwapVaaSigned {
		next = order.StatusSubmittedOnSolanaMctp
	}
	err := f.poll(ctx, "state account", func(ctx context.Context) (bool, error) {
		data, err := f.solana.GetAccountData(ctx, o.StateAddr)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return false, nil
			}
			return false, err
		}
		return len(data) > 0, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

func (f *Follower) waitClaimed(ctx context.Context, o *order.Order) error {
	next := order.StatusClaimedOnSolana
	if o.Status == order.StatusSubmittedOnSolanaMctp {
		next = order.StatusClaimedOnSolanaMctp
	}
	err := f.poll(ctx, "claim", func(ctx context.Context) (bool, error) {
		state, err := f.fetchState(ctx, o)
		if err != nil {
			return false, err
		}
		return state != nil, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

// waitOutcome waits for the swap on the destination to finish one way or
// the other.
func (f *Follower) waitOutcome(ctx context.Context, o *order.Order) error {
	mctp := o.Status == order.StatusClaimedOnSolanaMctp
	var state *wire.SwapState
	err := f.poll(ctx, "swap outcome", func(ctx context.Context) (bool, error) {
		s, err := f.fetchState(ctx, o)
		if err != nil {
			return false, err
		}
		if s == nil || s.Status == wire.StateClaimed {
			return false, nil
		}
		state = s
		return true, nil
	})
	if err != nil {
		return err
	}

	switch state.Status {
	case wire.StateSwapDone, wire.StateDoneSwapped:
		next := order.StatusSwappedOnSolana
		if mctp {
			next = order.StatusSwappedOnSolanaMctp
		}
		amountOut, _ := state.AmountOut()
		formatted := f.formatOnSolana(ctx, state.ToToken, amountOut)
		return f.transition(ctx, o, order.Patch{Status: next, ToAmount: &formatted})
	default: // not swapped, the deposit flows back
		if seq, ok := state.RedeemSequence(); ok {
			return f.transition(ctx, o, order.Patch{
				Status:         order.StatusRefundSequenceReceived,
				RedeemSequence: &seq,
			})
		}
		next := order.StatusRefundedOnSolana
		if mctp {
			next = order.StatusRefundedOnSolanaMctp
		}
		return f.transition(ctx, o, order.Patch{Status: next})
	}
}

// waitSettlement resolves where a finished swap settles. A solana
// destination settles in place, any other destination hands a redeem
// sequence to the outbound leg.
func (f *Follower) waitSettlement(ctx context.Context, o *order.Order) error {
	mctp := o.Status == order.StatusSwappedOnSolanaMctp
	state, err := f.fetchState(ctx, o)
	if err != nil && !errors.Is(err, gerror.ErrDataUnavailable) {
		return err
	}
	if state != nil {
		if seq, ok := state.RedeemSequence(); ok {
			return f.transition(ctx, o, order.Patch{
				Status:         order.StatusRedeemSequenceReceived,
				RedeemSequence: &seq,
			})
		}
	}
	next := order.StatusSettledOnSolana
	if mctp {
		next = order.StatusSettledOnSolanaMctp
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

// waitOutboundSigned waits for the outbound redeem or refund message to be
// signed and keeps its digest, which is what the destination contracts key
// the completed transfer by.
func (f *Follower) waitOutboundSigned(ctx context.Context, o *order.Order, next order.Status) error {
	emitterAddr, err := chain.FromNative(o.StateAddr, chain.Solana)
	if err != nil {
		return err
	}
	var digest common.Hash
	err = f.poll(ctx, "outbound vaa", func(ctx context.Context) (bool, error) {
		signed, err := f.attester.GetSignedMessage(ctx, chain.Solana, emitterAddr, o.RedeemSequence)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return false, nil
			}
			return false, err
		}
		digest, err = wire.VaaDigest(signed)
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next, OrderHash: &digest})
}

// waitCompletedOnEVM watches the destination contract for the commitment the
// order carries. An order without one cannot be followed here.
func (f *Follower) waitCompletedOnEVM(ctx context.Context, o *order.Order, next order.Status, on chain.ID) error {
	client, ok := f.evm[on]
	if !ok {
		return errors.Wrapf(gerror.ErrUnknownChainDomain, "no evm client for chain %s", on.Name())
	}
	if o.OrderHash == (common.Hash{}) {
		return errors.Errorf("order %s carries no transfer commitment to watch on %s", o.ID, on.Name())
	}
	err := f.poll(ctx, "completion", func(ctx context.Context) (bool, error) {
		done, err := client.IsTransferCompleted(ctx, o.OrderHash)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return false, nil
			}
			return false, err
		}
		return done, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

// waitBridgeRedeemed waits for a plain bridge deposit to be handed over on
// the destination. The burn message nonce tells when the transmitter
// received it.
func (f *Follower) waitBridgeRedeemed(ctx context.Context, o *order.Order) error {
	next := order.StatusRedeemedWithFee
	if o.Service == order.ServiceMctpBridgeAndUnlock {
		next = order.StatusRedeemedWithLockedFee
	}
	if o.CctpNonce == 0 {
		return f.waitCompletedOnEVM(ctx, o, next, o.DestChain)
	}
	client, ok := f.evm[o.DestChain]
	if !ok {
		return errors.Wrapf(gerror.ErrUnknownChainDomain, "no evm client for chain %s", o.DestChain.Name())
	}
	err := f.poll(ctx, "bridge redeem", func(ctx context.Context) (bool, error) {
		used, err := client.IsNonceUsed(ctx, o.CctpDomain, o.CctpNonce)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return false, nil
			}
			return false, err
		}
		return used, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: next})
}

// waitFeeUnlocked waits for the locked relayer fee to be released, which
// closes the ledger account on solana.
func (f *Follower) waitFeeUnlocked(ctx context.Context, o *order.Order) error {
	err := f.poll(ctx, "fee unlock", func(ctx context.Context) (bool, error) {
		data, err := f.solana.GetAccountData(ctx, o.StateAddr)
		if err != nil {
			if errors.Is(err, gerror.ErrDataUnavailable) {
				return true, nil
			}
			return false, err
		}
		return len(data) == 0, nil
	})
	if err != nil {
		return err
	}
	return f.transition(ctx, o, order.Patch{Status: order.StatusMctpFeeUnlocked})
}

func (f *Follower) fetchState(ctx context.Context, o *order.Order) (*wire.SwapState, error) {
	data, err := f.solana.GetAccountData(ctx, o.StateAddr)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return wire.ParseSwapState(data)
}

func (f *Follower) formatOnSolana(ctx context.Context, mint chain.Address, amount int64) string {
	decimals := uint8(token.WormholeDecimals)
	if t, err := f.tokens.GetCanonical(ctx, chain.Solana, mint); err == nil {
		decimals = token.TruncateDecimals(t.Decimals)
	}
	return token.FormatUnits64(uint64(amount), decimals)
}
