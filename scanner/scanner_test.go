package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cfgtypes "github.com/mayanlabs/swap-watcher/config/types"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/solman"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	mu sync.Mutex
	// pages of signatures keyed by the before cursor
	pages map[string][]solman.SignatureInfo
	txs   map[string]*solman.RawTransaction
	calls []string
}

func (c *stubClient) GetSignaturesForAddress(_ context.Context, _, before, until string, _ int) ([]solman.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := c.pages[before]
	out := make([]solman.SignatureInfo, 0, len(page))
	for _, s := range page {
		if s.Signature == until {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *stubClient) GetTransaction(_ context.Context, signature string) (*solman.RawTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, signature)
	tx, ok := c.txs[signature]
	if !ok {
		return nil, errors.Wrap(gerror.ErrDataUnavailable, signature)
	}
	return tx, nil
}

type stubHandler struct {
	mu      sync.Mutex
	handled []string
	fail    map[string]error
}

func (h *stubHandler) HandleTransaction(_ context.Context, _ Target, tx *solman.RawTransaction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err, ok := h.fail[tx.Signature]; ok {
		return err
	}
	h.handled = append(h.handled, tx.Signature)
	return nil
}

type stubCheckpoints struct {
	mu     sync.Mutex
	cursor map[string]string
}

func (s *stubCheckpoints) GetCheckpoint(_ context.Context, target string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursor[target]
	if !ok {
		return "", errors.Wrap(gerror.ErrStorageNotFound, target)
	}
	return c, nil
}

func (s *stubCheckpoints) SetCheckpoint(_ context.Context, target, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor[target] = signature
	return nil
}

func testTarget() Target {
	return Target{Name: "mctp", Protocol: intent.ProtocolMctp, Program: "prog"}
}

func testScanner(client *stubClient, handler *stubHandler, cps *stubCheckpoints) *Scanner {
	cfg := Config{
		ScanInterval:        cfgtypes.NewDuration(time.Millisecond),
		SignatureBatchLimit: 100,
		NumberOfParallelTxs: 4,
	}
	return NewScanner(cfg, client, handler, cps, []Target{testTarget()})
}

func tx(sig string) *solman.RawTransaction {
	return &solman.RawTransaction{Signature: sig}
}

func TestScanTargetHandlesNewestToCheckpoint(t *testing.T) {
	client := &stubClient{
		pages: map[string][]solman.SignatureInfo{
			"": {
				{Signature: "sig3", Slot: 3},
				{Signature: "sig2", Slot: 2},
				{Signature: "sig1", Slot: 1},
			},
		},
		txs: map[string]*solman.RawTransaction{
			"sig2": tx("sig2"), "sig3": tx("sig3"),
		},
	}
	handler := &stubHandler{}
	cps := &stubCheckpoints{cursor: map[string]string{"mctp": "sig1"}}

	err := testScanner(client, handler, cps).ScanTarget(context.Background(), testTarget())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sig2", "sig3"}, handler.handled)
	assert.Equal(t, "sig3", cps.cursor["mctp"])
}

func TestScanTargetFirstRunWithoutCheckpoint(t *testing.T) {
	client := &stubClient{
		pages: map[string][]solman.SignatureInfo{
			"": {{Signature: "sig1", Slot: 1}},
		},
		txs: map[string]*solman.RawTransaction{"sig1": tx("sig1")},
	}
	handler := &stubHandler{}
	cps := &stubCheckpoints{cursor: map[string]string{}}

	err := testScanner(client, handler, cps).ScanTarget(context.Background(), testTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{"sig1"}, handler.handled)
	assert.Equal(t, "sig1", cps.cursor["mctp"])
}

func TestScanTargetSkipsFailedTransactions(t *testing.T) {
	client := &stubClient{
		pages: map[string][]solman.SignatureInfo{
			"": {
				{Signature: "sig2", Slot: 2},
				{Signature: "sig1", Slot: 1, Failed: true},
			},
		},
		txs: map[string]*solman.RawTransaction{"sig2": tx("sig2")},
	}
	handler := &stubHandler{}
	cps := &stubCheckpoints{cursor: map[string]string{}}

	err := testScanner(client, handler, cps).ScanTarget(context.Background(), testTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{"sig2"}, handler.handled)
	// failed transaction never fetched
	assert.NotContains(t, client.calls, "sig1")
}

func TestScanTargetDecodeFailureDoesNotBlock(t *testing.T) {
	client := &stubClient{
		pages: map[string][]solman.SignatureInfo{
			"": {
				{Signature: "sig2", Slot: 2},
				{Signature: "sig1", Slot: 1},
			},
		},
		txs: map[string]*solman.RawTransaction{"sig1": tx("sig1"), "sig2": tx("sig2")},
	}
	handler := &stubHandler{fail: map[string]error{
		"sig1": errors.Wrap(gerror.ErrDecode, "garbage"),
	}}
	cps := &stubCheckpoints{cursor: map[string]string{}}

	err := testScanner(client, handler, cps).ScanTarget(context.Background(), testTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{"sig2"}, handler.handled)
	assert.Equal(t, "sig2", cps.cursor["mctp"])
}

func TestScanTargetMissingTxHoldsCheckpoint(t *testing.T) {
	client := &stubClient{
		pages: map[string][]solman.SignatureInfo{
			"": {{Signature: "sig1", Slot: 1}},
		},
		txs: map[string]*solman.RawTransaction{},
	}
	handler := &stubHandler{}
	cps := &stubCheckpoints{cursor: map[string]string{"mctp": "sig0"}}

	err := testScanner(client, handler, cps).ScanTarget(context.Background(), testTarget())
	assert.ErrorIs(t, err, gerror.ErrDataUnavailable)
	assert.Equal(t, "sig0", cps.cursor["mctp"])
}

func TestStartDoesNotOverlapRounds(t *testing.T) {
	release := make(chan struct{})
	client := &slowClient{release: release}
	handler := &stubHandler{}
	cps := &stubCheckpoints{cursor: map[string]string{}}

	s := testScanner(&stubClient{pages: map[string][]solman.SignatureInfo{}, txs: map[string]*solman.RawTransaction{}}, handler, cps)
	s.client = client

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	// several ticks pass while the first round hangs in the client
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), client.active.Load())
	close(release)
	cancel()
	<-done
}

type slowClient struct {
	release chan struct{}
	active  atomic.Int32
}

func (c *slowClient) GetSignaturesForAddress(_ context.Context, _, _, _ string, _ int) ([]solman.SignatureInfo, error) {
	c.active.Add(1)
	<-c.release
	return nil, nil
}

func (c *slowClient) GetTransaction(_ context.Context, _ string) (*solman.RawTransaction, error) {
	return nil, errors.New("unused")
}
