// Package scanner polls the watched solana programs for new transactions and
// hands each one to the transaction handler, keeping a per-program cursor so
// nothing is scanned twice.
package scanner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/solman"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Target is one watched program.
type Target struct {
	Name          string
	Protocol      intent.Protocol
	Program       string
	PayloadWriter string
}

// solanaClient is the slice of the rpc client the scanner needs.
type solanaClient interface {
	GetSignaturesForAddress(ctx context.Context, address, before, until string, limit int) ([]solman.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*solman.RawTransaction, error)
}

// TxHandler consumes one fetched transaction of a target.
type TxHandler interface {
	HandleTransaction(ctx context.Context, target Target, tx *solman.RawTransaction) error
}

// checkpointStorage persists the newest handled signature per target.
type checkpointStorage interface {
	GetCheckpoint(ctx context.Context, target string) (string, error)
	SetCheckpoint(ctx context.Context, target, signature string) error
}

// Scanner drives the scan loop over all targets.
type Scanner struct {
	cfg     Config
	client  solanaClient
	handler TxHandler
	storage checkpointStorage
	targets []Target

	// inFlight guards each target so a slow round cannot overlap the
	// next tick of the same target.
	inFlight map[string]*atomic.Bool
}

// NewScanner creates a scanner over the given targets.
func NewScanner(cfg Config, client solanaClient, handler TxHandler, storage checkpointStorage, targets []Target) *Scanner {
	guards := make(map[string]*atomic.Bool, len(targets))
	for _, t := range targets {
		guards[t.Name] = &atomic.Bool{}
	}
	return &Scanner{
		cfg:      cfg,
		client:   client,
		handler:  handler,
		storage:  storage,
		targets:  targets,
		inFlight: guards,
	}
}

// Start runs the scan loop until the context is canceled.
func (s *Scanner) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, target := range s.targets {
				target := target
				guard := s.inFlight[target.Name]
				if !guard.CompareAndSwap(false, true) {
					log.Debugf("round for %s still running, skipping tick", target.Name)
					continue
				}
				go func() {
					defer guard.Store(false)
					if err := s.ScanTarget(ctx, target); err != nil {
						log.Errorf("scanning %s: %v", target.Name, err)
					}
				}()
			}
		}
	}
}

// ScanTarget runs one round over a single target: list everything newer than
// the checkpoint, handle it oldest first, then advance the checkpoint.
func (s *Scanner) ScanTarget(ctx context.Context, target Target) error {
	start := time.Now()
	defer func() {
		metrics.RecordScannerRound(target.Name, string(target.Protocol), time.Since(start))
	}()

	checkpoint, err := s.storage.GetCheckpoint(ctx, target.Name)
	if err != nil && !errors.Is(err, gerror.ErrStorageNotFound) {
		return err
	}

	pending, err := s.listNewSignatures(ctx, target, checkpoint)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	log.Infof("%s: %d new transactions", target.Name, len(pending))

	// oldest first, so the checkpoint never jumps over unhandled work
	for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
		pending[i], pending[j] = pending[j], pending[i]
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(int(s.cfg.NumberOfParallelTxs))
	for _, sig := range pending {
		sig := sig
		group.Go(func() error {
			return s.handleSignature(gctx, target, sig)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	newest := pending[len(pending)-1].Signature
	return s.storage.SetCheckpoint(ctx, target.Name, newest)
}

// listNewSignatures pages backwards from the chain tip until it reaches the
// checkpoint, returning everything in between newest first.
func (s *Scanner) listNewSignatures(ctx context.Context, target Target, checkpoint string) ([]solman.SignatureInfo, error) {
	var all []solman.SignatureInfo
	before := ""
	for {
		batch, err := s.client.GetSignaturesForAddress(ctx, target.Program, before, checkpoint, s.cfg.SignatureBatchLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < s.cfg.SignatureBatchLimit {
			return all, nil
		}
		before = batch[len(batch)-1].Signature
	}
}

func (s *Scanner) handleSignature(ctx context.Context, target Target, sig solman.SignatureInfo) error {
	if sig.Failed {
		return nil
	}
	tx, err := s.client.GetTransaction(ctx, sig.Signature)
	if err != nil {
		// ErrDataUnavailable included: the checkpoint must not move
		// past a transaction the node has not served yet.
		return err
	}
	if tx.Failed {
		return nil
	}
	metrics.RecordScannedTx(target.Name, string(target.Protocol))
	if err := s.handler.HandleTransaction(ctx, target, tx); err != nil {
		if errors.Is(err, gerror.ErrDecode) {
			metrics.RecordDecodeFailure(target.Name, string(target.Protocol))
			log.Warnf("%s: undecodable transaction %s: %v", target.Name, sig.Signature, err)
			return nil
		}
		return err
	}
	return nil
}
