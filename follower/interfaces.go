package follower

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/solman"
)

// SolanaClient reads transactions and accounts from a solana rpc node.
type SolanaClient interface {
	GetTransaction(ctx context.Context, signature string) (*solman.RawTransaction, error)
	GetAccountData(ctx context.Context, address string) ([]byte, error)
	GetSignaturesForAddress(ctx context.Context, address, before, until string, limit int) ([]solman.SignatureInfo, error)
}

// EVMClient reads swap progress from an evm rpc node.
type EVMClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	// TransferSequence re-derives the message sequence a source
	// transaction emitted. The answer changes when the chain reorged.
	TransferSequence(ctx context.Context, txHash common.Hash) (int64, error)
	// IsTransferCompleted asks the destination contract whether the
	// message with the given digest has been consumed.
	IsTransferCompleted(ctx context.Context, digest common.Hash) (bool, error)
	// IsNonceUsed asks the message transmitter whether the burn with the
	// given source domain and nonce has been received.
	IsNonceUsed(ctx context.Context, sourceDomain uint32, nonce uint64) (bool, error)
}

// AttestationService fetches signed guardian messages by emitter and
// sequence.
type AttestationService interface {
	GetSignedMessage(ctx context.Context, emitterChain chain.ID, emitterAddr chain.Address, sequence int64) ([]byte, error)
}

// StorageInterface persists orders. UpdateOrderStatus is conditional on the
// previous status, it reports false without error when another writer
// already moved the order on.
type StorageInterface interface {
	AddOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetOrderByStateAddr(ctx context.Context, stateAddr string) (*order.Order, error)
	GetUnfinishedOrders(ctx context.Context) ([]*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, expected order.Status, patch order.Patch) (bool, error)
}
