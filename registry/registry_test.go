package registry

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/mayanlabs/swap-watcher/wire"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	orders map[string]*order.Order
}

func newMemStorage() *memStorage {
	return &memStorage{orders: make(map[string]*order.Order)}
}

func (s *memStorage) AddOrder(_ context.Context, o *order.Order) error {
	s.orders[o.ID] = o
	return nil
}

func (s *memStorage) GetOrder(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.Wrap(gerror.ErrStorageNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (s *memStorage) GetOrderByStateAddr(_ context.Context, stateAddr string) (*order.Order, error) {
	for _, o := range s.orders {
		if o.StateAddr == stateAddr {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errors.Wrap(gerror.ErrStorageNotFound, stateAddr)
}

func (s *memStorage) UpdateOrderStatus(_ context.Context, id string, expected order.Status, patch order.Patch) (bool, error) {
	o, ok := s.orders[id]
	if !ok {
		return false, errors.Wrap(gerror.ErrStorageNotFound, id)
	}
	if o.Status != expected {
		return false, nil
	}
	o.Apply(patch)
	return true, nil
}

func evmAddr32(hex string) chain.Address {
	var a chain.Address
	copy(a[12:], common.HexToAddress(hex).Bytes())
	return a
}

type stubAccounts struct {
	data map[string][]byte
}

func (s *stubAccounts) GetAccountData(_ context.Context, address string) ([]byte, error) {
	d, ok := s.data[address]
	if !ok {
		return nil, errors.Wrap(gerror.ErrDataUnavailable, address)
	}
	return d, nil
}

func testRegistry() (*Registry, *memStorage) {
	r, st, _ := testRegistryWithAccounts()
	return r, st
}

func testRegistryWithAccounts() (*Registry, *memStorage, *stubAccounts) {
	st := newMemStorage()
	acc := &stubAccounts{data: make(map[string][]byte)}
	return NewRegistry(st, token.NewDirectory(), acc), st, acc
}

// whStateData builds a live swap state account at the given outcome.
func whStateData(status wire.SwapStateStatus, source, dest chain.ID, redeemSeqRaw uint64) []byte {
	buf := make([]byte, 363)
	buf[0] = byte(status)
	binary.LittleEndian.PutUint64(buf[65:73], 2_000_000)
	binary.LittleEndian.PutUint64(buf[73:81], redeemSeqRaw)
	binary.LittleEndian.PutUint16(buf[177:179], uint16(dest))
	binary.LittleEndian.PutUint16(buf[211:213], uint16(source))
	buf[330] = 5
	return buf
}

func TestProcessBurnWithBridgeHook(t *testing.T) {
	r, st := testRegistry()
	msg := &wire.CircleMessage{
		SourceDomain: 0, // ethereum
		DestDomain:   3, // arbitrum
		Nonce:        99,
		Amount:       2_500_000,
		BurnToken:    evmAddr32("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
	}
	hook := wire.BridgeHook{
		DestAddr:  evmAddr32("0x00000000000000000000000000000000000000aa"),
		GasDrop:   7,
		RedeemFee: 1000,
	}

	o, err := r.ProcessBurn(context.Background(), "0xabc", "0xtrader", msg, hook)
	require.NoError(t, err)
	assert.Equal(t, order.ServiceMctpBridge, o.Service)
	assert.Equal(t, order.StatusInitiatedOnEVMMctp, o.Status)
	assert.Equal(t, chain.Ethereum, o.SourceChain)
	assert.Equal(t, chain.Arbitrum, o.DestChain)
	assert.Equal(t, "2.5", o.FromAmount)
	assert.Equal(t, "USDC", o.FromTokenSymbol)
	assert.Equal(t, uint64(99), o.CctpNonce)
	assert.Equal(t, uint64(1000), o.RedeemFee)
	assert.NotEmpty(t, o.DestAddress)
	assert.Contains(t, st.orders, o.ID)
}

func TestProcessBurnWithOrderHook(t *testing.T) {
	r, _ := testRegistry()
	msg := &wire.CircleMessage{
		SourceDomain: 6, // base
		DestDomain:   0, // ethereum
		Amount:       1_000_000,
		BurnToken:    evmAddr32("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"),
	}
	hook := wire.OrderHook{
		DestAddr:     evmAddr32("0x00000000000000000000000000000000000000bb"),
		TokenOut:     evmAddr32("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		MinAmountOut: 990_000,
		Deadline:     1_900_000_000,
	}

	o, err := r.ProcessBurn(context.Background(), "0xdef", "0xtrader", msg, hook)
	require.NoError(t, err)
	assert.Equal(t, order.ServiceMctpSwap, o.Service)
	assert.Equal(t, "USDC", o.ToTokenSymbol)
	assert.Equal(t, "0.99", o.MinAmountOut)
	assert.False(t, o.Deadline.IsZero())
}

func TestProcessBurnUnknownDomain(t *testing.T) {
	r, _ := testRegistry()
	msg := &wire.CircleMessage{SourceDomain: 4, DestDomain: 0}
	_, err := r.ProcessBurn(context.Background(), "0x1", "t", msg, nil)
	assert.ErrorIs(t, err, gerror.ErrUnknownChainDomain)
}

func TestProcessFastBurnCommitsToHash(t *testing.T) {
	r, st := testRegistry()
	hook := wire.OrderHook{
		DestAddr:     evmAddr32("0x00000000000000000000000000000000000000cc"),
		TokenOut:     evmAddr32("0xaf88d065e77c8cc2239327c5edb3a432268e5831"),
		MinAmountOut: 5,
		Deadline:     1_900_000_000,
	}
	msg := &wire.FastCircleMessage{
		SourceDomain: 0, // ethereum
		DestDomain:   3, // arbitrum
		Amount:       10_000_000,
		BurnToken:    evmAddr32("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		HookData:     hook.Marshal(),
	}

	o, err := r.ProcessFastBurn(context.Background(), "0xfast", "0xtrader", msg)
	require.NoError(t, err)
	assert.Equal(t, order.ServiceMctpSwap, o.Service)
	assert.Equal(t, uint8(3), o.MayanBps)
	assert.NotEqual(t, common.Hash{}, o.OrderHash)
	assert.Equal(t, "FAST_"+o.OrderHash.Hex(), o.ID)
	assert.Contains(t, st.orders, o.ID)

	require.NoError(t, r.VerifyOrderHash(o, o.OrderHash))
	var other common.Hash
	other[0] = 0xff
	assert.ErrorIs(t, r.VerifyOrderHash(o, other), gerror.ErrOrderHashMismatch)
}

func TestApplyIntentSwiftLifecycle(t *testing.T) {
	r, st := testRegistry()
	ctx := context.Background()

	create := &intent.Intent{
		Protocol:    intent.ProtocolSwift,
		Goal:        intent.GoalCreateOrder,
		UserWallet:  "trader",
		StateAcc:    "state1",
		DestChain:   chain.Arbitrum,
		TokenOut:    evmAddr32("0xaf88d065e77c8cc2239327c5edb3a432268e5831"),
		DestAddress: evmAddr32("0x00000000000000000000000000000000000000dd"),
		Deadline:    1_900_000_000,
	}
	require.NoError(t, r.ApplyIntent(ctx, create, "sig1"))
	o, err := st.GetOrderByStateAddr(ctx, "state1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusOrderCreated, o.Status)
	assert.Equal(t, order.ServiceSwiftSwap, o.Service)

	steps := []*intent.Intent{
		{Protocol: intent.ProtocolSwift, Goal: intent.GoalRegisterOrder, StateAcc: "state1"},
		{Protocol: intent.ProtocolSwift, Goal: intent.GoalFulfill, StateAcc: "state1", WinnerAcc: "winner"},
		{Protocol: intent.ProtocolSwift, Goal: intent.GoalSettle, StateAcc: "state1"},
		{Protocol: intent.ProtocolSwift, Goal: intent.GoalPostUnlock, StateAccs: []string{"state1", "ghost"}},
	}
	for _, in := range steps {
		require.NoError(t, r.ApplyIntent(ctx, in, "sig"))
	}
	o, err = st.GetOrderByStateAddr(ctx, "state1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusOrderUnlocked, o.Status)
	assert.Equal(t, "winner", o.Winner)
}

func TestApplyIntentLedgerOrder(t *testing.T) {
	r, st := testRegistry()
	ctx := context.Background()

	open := &intent.Intent{
		Protocol:    intent.ProtocolMctp,
		Goal:        intent.GoalRegisterBridge,
		UserWallet:  "wallet",
		LedgerAcc:   "ledger1",
		DestChain:   chain.Base,
		DepositMode: intent.DepositWithLock,
		GasDrop:     3,
	}
	require.NoError(t, r.ApplyIntent(ctx, open, "sig1"))
	o, err := st.GetOrderByStateAddr(ctx, "ledger1")
	require.NoError(t, err)
	assert.Equal(t, order.ServiceMctpBridgeAndUnlock, o.Service)
	assert.Equal(t, order.StatusInitiatedOnSolanaMctp, o.Status)
	assert.Equal(t, "USDC", o.ToTokenSymbol)
	assert.Equal(t, uint8(10), o.MayanBps)

	bridge := &intent.Intent{Protocol: intent.ProtocolMctp, Goal: intent.GoalBridge, LedgerAcc: "ledger1"}
	require.NoError(t, r.ApplyIntent(ctx, bridge, "sig2"))
	o, err = st.GetOrderByStateAddr(ctx, "ledger1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusSubmittedOnSolanaMctp, o.Status)
}

func TestApplyIntentRedeemBurn(t *testing.T) {
	r, st := testRegistry()
	ctx := context.Background()
	msg := &wire.CircleMessage{
		SourceDomain: 0,
		DestDomain:   5, // solana
		Nonce:        7,
		Amount:       1_000_000,
		BurnToken:    evmAddr32("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
	}
	o, err := r.ProcessBurn(ctx, "0xsrc", "t", msg, nil)
	require.NoError(t, err)

	redeem := &intent.Intent{
		Protocol:      intent.ProtocolMctpV2,
		Goal:          intent.GoalRedeem,
		CircleMessage: msg.Marshal(),
	}
	require.NoError(t, r.ApplyIntent(ctx, redeem, "sig"))
	got, err := st.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusRedeemedWithFee, got.Status)
}

func TestApplyIntentUnknownStateIsSkipped(t *testing.T) {
	r, _ := testRegistry()
	in := &intent.Intent{Protocol: intent.ProtocolSwift, Goal: intent.GoalFulfill, StateAcc: "ghost"}
	assert.NoError(t, r.ApplyIntent(context.Background(), in, "sig"))
}

func TestProcessBurnOrderHookCommitsToHash(t *testing.T) {
	r, _ := testRegistry()
	msg := &wire.CircleMessage{
		SourceDomain: 6, // base
		DestDomain:   0, // ethereum
		Nonce:        12,
		Amount:       1_000_000,
		BurnToken:    evmAddr32("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"),
	}
	hook := wire.OrderHook{
		DestAddr:     evmAddr32("0x00000000000000000000000000000000000000bb"),
		TokenOut:     evmAddr32("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		MinAmountOut: 990_000,
		Deadline:     1_900_000_000,
		ReferrerBps:  4,
	}

	o, err := r.ProcessBurn(context.Background(), "0xabc",
		"0x00000000000000000000000000000000000000ee", msg, hook)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), o.MayanBps)
	assert.NotEqual(t, common.Hash{}, o.OrderHash)
	require.NoError(t, r.VerifyOrderHash(o, o.OrderHash))
	var other common.Hash
	other[0] = 0x01
	assert.ErrorIs(t, r.VerifyOrderHash(o, other), gerror.ErrOrderHashMismatch)
}

// A register instruction of a wormhole-settled program opens a wormhole
// order from the live state account, not a circle ledger order.
func TestApplyIntentLegacyRegisterOpensWhOrder(t *testing.T) {
	r, st, acc := testRegistryWithAccounts()
	ctx := context.Background()

	li, err := intent.DecodeLegacy(intent.Instruction{
		ProgramID: "prog",
		Data:      []byte{100, 9},
		Accounts:  []string{"agent", "payer", "config", "whstate1"},
	})
	require.NoError(t, err)
	require.Equal(t, intent.ProtocolWhSwap, li.Protocol)
	require.Equal(t, "whstate1", li.StateAcc)

	acc.data["whstate1"] = whStateData(wire.StateClaimed, chain.Base, chain.Solana, 0)
	require.NoError(t, r.ApplyIntent(ctx, &li.Intent, "sig1"))

	o, err := st.GetOrder(ctx, "WH_SOL_whstate1")
	require.NoError(t, err)
	assert.Equal(t, order.ServiceWhSwap, o.Service)
	assert.Equal(t, order.StatusClaimedOnSolana, o.Status)
	assert.Equal(t, chain.Base, o.SourceChain)
	assert.Equal(t, uint8(5), o.ReferrerBps)
	for id := range st.orders {
		assert.NotContains(t, id, "MCTP_SOL_")
	}
}

// A second register against a known state account advances the existing
// order instead of opening another one.
func TestApplyIntentWhRegisterAdvancesKnownState(t *testing.T) {
	r, st, acc := testRegistryWithAccounts()
	ctx := context.Background()
	in := &intent.Intent{Protocol: intent.ProtocolWhSwap, Goal: intent.GoalRegisterBridge, StateAcc: "whstate2"}

	acc.data["whstate2"] = whStateData(wire.StateClaimed, chain.Base, chain.Ethereum, 0)
	require.NoError(t, r.ApplyIntent(ctx, in, "sig1"))

	acc.data["whstate2"] = whStateData(wire.StateDoneSwapped, chain.Base, chain.Ethereum, 9)
	require.NoError(t, r.ApplyIntent(ctx, in, "sig2"))

	o, err := st.GetOrder(ctx, "WH_SOL_whstate2")
	require.NoError(t, err)
	assert.Equal(t, order.StatusRedeemSequenceReceived, o.Status)
	assert.Equal(t, int64(8), o.RedeemSequence)
	assert.Len(t, st.orders, 1)
}

// Settle instructions of wormhole-settled programs close message accounts,
// the order keeps the outcome the state account already reported.
func TestApplyIntentWhSettleLeavesOrder(t *testing.T) {
	r, st, acc := testRegistryWithAccounts()
	ctx := context.Background()

	acc.data["whstate3"] = whStateData(wire.StateClaimed, chain.Base, chain.Solana, 0)
	register := &intent.Intent{Protocol: intent.ProtocolWhSwap, Goal: intent.GoalRegisterBridge, StateAcc: "whstate3"}
	require.NoError(t, r.ApplyIntent(ctx, register, "sig1"))

	settle := &intent.Intent{Protocol: intent.ProtocolWhSwap, Goal: intent.GoalSettle, StateAcc: "whstate3"}
	require.NoError(t, r.ApplyIntent(ctx, settle, "sig2"))

	o, err := st.GetOrder(ctx, "WH_SOL_whstate3")
	require.NoError(t, err)
	assert.Equal(t, order.StatusClaimedOnSolana, o.Status)
}

func TestOpenSwiftOrderKeyedByHash(t *testing.T) {
	r, st := testRegistry()
	ctx := context.Background()

	create := &intent.Intent{
		Protocol:     intent.ProtocolSwift,
		Goal:         intent.GoalCreateOrder,
		UserWallet:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		StateAcc:     "state9",
		MintAcc:      "So11111111111111111111111111111111111111112",
		DestChain:    chain.Arbitrum,
		TokenOut:     evmAddr32("0xaf88d065e77c8cc2239327c5edb3a432268e5831"),
		DestAddress:  evmAddr32("0x00000000000000000000000000000000000000dd"),
		MinAmountOut: 5,
		Deadline:     1_900_000_000,
		ReferrerBps:  2,
		MayanBps:     3,
	}
	require.NoError(t, r.ApplyIntent(ctx, create, "sig1"))

	o, err := st.GetOrderByStateAddr(ctx, "state9")
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, o.OrderHash)
	assert.Equal(t, "SWIFT_"+o.OrderHash.Hex(), o.ID)
}
