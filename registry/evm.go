package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/mayanlabs/swap-watcher/etherman"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/wire"
)

// evmSource is the slice of an evm chain client the burn intake needs.
type evmSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	MessageSentPayloads(receipt *types.Receipt) ([][]byte, error)
	PublishedMessages(receipt *types.Receipt) ([]*etherman.PublishedMessage, error)
}

// RegisterEVMBurn opens an order for every burn message a source transaction
// emitted. Regular burns take the hook the caller decoded from the calldata,
// fast burns carry their hook inline and ignore the argument. A receipt the
// node has not served yet comes back as ErrDataUnavailable.
//
// Swap deposits also publish the hash the contracts committed to, which is
// checked against the locally rebuilt one.
func (r *Registry) RegisterEVMBurn(ctx context.Context, client evmSource, txHash common.Hash,
	trader string, hook wire.Hook) ([]*order.Order, error) {
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	payloads, err := client.MessageSentPayloads(receipt)
	if err != nil {
		return nil, err
	}
	carried, err := carriedOrderHashes(client, receipt)
	if err != nil {
		return nil, err
	}

	var opened []*order.Order
	for _, raw := range payloads {
		var o *order.Order
		if len(raw) == wire.CircleMessageLen {
			msg, err := wire.ParseCircleMessage(raw)
			if err != nil {
				return nil, err
			}
			o, err = r.ProcessBurn(ctx, txHash.Hex(), trader, msg, hook)
			if err != nil {
				return nil, err
			}
		} else {
			msg, err := wire.ParseFastCircleMessage(raw)
			if err != nil {
				return nil, err
			}
			o, err = r.ProcessFastBurn(ctx, txHash.Hex(), trader, msg)
			if err != nil {
				return nil, err
			}
		}
		if len(carried) == 1 && o.OrderHash != (common.Hash{}) {
			if err := r.VerifyOrderHash(o, carried[0]); err != nil {
				return nil, err
			}
		}
		opened = append(opened, o)
	}
	return opened, nil
}

// carriedOrderHashes collects the order hashes the transaction published
// alongside its burns. First-layout deposits publish the bare hash, later
// ones wrap it in a swap payload.
func carriedOrderHashes(client evmSource, receipt *types.Receipt) ([]common.Hash, error) {
	msgs, err := client.PublishedMessages(receipt)
	if err != nil {
		return nil, err
	}
	var hashes []common.Hash
	for _, m := range msgs {
		switch len(m.Payload) {
		case common.HashLength:
			hashes = append(hashes, common.BytesToHash(m.Payload))
		case wire.CctpSwapPayloadLen:
			p, err := wire.ParseCctpSwapPayload(m.Payload)
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, p.OrderHash)
		}
	}
	return hashes, nil
}
