// Package etherman reads swap progress from the evm chains: burn messages
// out of transaction receipts, wormhole sequences, and redeem completion on
// the destination contracts.
package etherman

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/wire"
	"github.com/pkg/errors"
)

var (
	messageSentSignatureHash         = crypto.Keccak256Hash([]byte("MessageSent(bytes)"))
	logMessagePublishedSignatureHash = crypto.Keccak256Hash([]byte("LogMessagePublished(address,uint64,uint32,bytes,uint8)"))

	isTransferCompletedSelector = crypto.Keccak256([]byte("isTransferCompleted(bytes32)"))[:4]
	usedNoncesSelector          = crypto.Keccak256([]byte("usedNonces(bytes32)"))[:4]
)

type ethClienter interface {
	ethereum.TransactionReader
	ethereum.ContractCaller
}

// Client talks to one evm chain.
type Client struct {
	Chain       chain.ID
	EtherClient ethClienter

	messageTransmitter common.Address
	coreBridge         common.Address
	tokenBridge        common.Address
	whSwap             common.Address
}

// NewClient connects to the rpc node of one configured chain.
func NewClient(cfg ChainConfig, c chain.ID) (*Client, error) {
	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		log.Errorf("error connecting to %s: %+v", cfg.URL, err)
		return nil, err
	}
	return &Client{
		Chain:              c,
		EtherClient:        ethClient,
		messageTransmitter: common.HexToAddress(cfg.MessageTransmitter),
		coreBridge:         common.HexToAddress(cfg.CoreBridge),
		tokenBridge:        common.HexToAddress(cfg.TokenBridge),
		whSwap:             common.HexToAddress(cfg.WhSwap),
	}, nil
}

// TransactionReceipt fetches the receipt of a transaction. A receipt the
// node does not know yet comes back as ErrDataUnavailable.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.EtherClient.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, errors.Wrap(gerror.ErrDataUnavailable, txHash.Hex())
	} else if err != nil {
		return nil, err
	}
	return receipt, nil
}

// MessageSentPayloads returns the raw bytes argument of every MessageSent
// event the receipt emitted through the configured transmitter.
func (c *Client) MessageSentPayloads(receipt *types.Receipt) ([][]byte, error) {
	var payloads [][]byte
	for _, l := range receipt.Logs {
		if l.Address != c.messageTransmitter || len(l.Topics) == 0 || l.Topics[0] != messageSentSignatureHash {
			continue
		}
		raw, err := unpackBytes(l.Data)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

// BurnMessages extracts the circle burn messages a receipt emitted. The
// MessageSent event carries one abi-encoded bytes argument.
func (c *Client) BurnMessages(receipt *types.Receipt) ([]*wire.CircleMessage, error) {
	payloads, err := c.MessageSentPayloads(receipt)
	if err != nil {
		return nil, err
	}
	var msgs []*wire.CircleMessage
	for _, raw := range payloads {
		msg, err := wire.ParseCircleMessage(raw)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// FastBurnMessages extracts fast-finality burn messages from a receipt, for
// transmitters speaking the fast message layout.
func (c *Client) FastBurnMessages(receipt *types.Receipt) ([]*wire.FastCircleMessage, error) {
	payloads, err := c.MessageSentPayloads(receipt)
	if err != nil {
		return nil, err
	}
	var msgs []*wire.FastCircleMessage
	for _, raw := range payloads {
		msg, err := wire.ParseFastCircleMessage(raw)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// PublishedMessage is one LogMessagePublished event of a receipt.
type PublishedMessage struct {
	Sender   common.Address
	Sequence int64
	Payload  []byte
}

// PublishedMessages returns every message the receipt emitted through the
// core bridge. The sender contract sits in the first indexed topic.
func (c *Client) PublishedMessages(receipt *types.Receipt) ([]*PublishedMessage, error) {
	var msgs []*PublishedMessage
	for _, l := range receipt.Logs {
		if l.Address != c.coreBridge || len(l.Topics) < 2 || l.Topics[0] != logMessagePublishedSignatureHash {
			continue
		}
		if len(l.Data) < 32 {
			return nil, errors.Wrap(gerror.ErrDecode, "LogMessagePublished data too short")
		}
		// non-indexed fields are sequence, nonce, payload, consistency level
		payload, err := unpackBytesAt(l.Data, 2)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, &PublishedMessage{
			Sender:   common.BytesToAddress(l.Topics[1].Bytes()),
			Sequence: new(big.Int).SetBytes(l.Data[:32]).Int64(),
			Payload:  payload,
		})
	}
	return msgs, nil
}

// SwapPublications splits the published messages of a receipt into the token
// bridge transfer and the swap instruction riding along with it. Either side
// is nil when the receipt did not publish it.
func (c *Client) SwapPublications(receipt *types.Receipt) (transfer, swap *PublishedMessage, err error) {
	msgs, err := c.PublishedMessages(receipt)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range msgs {
		switch m.Sender {
		case c.tokenBridge:
			transfer = m
		case c.whSwap:
			swap = m
		}
	}
	return transfer, swap, nil
}

// TransferSequence re-derives the wormhole sequence the transaction emitted
// through the core bridge. The answer changes when the chain reorged, which
// is exactly what callers use it to detect.
func (c *Client) TransferSequence(ctx context.Context, txHash common.Hash) (int64, error) {
	receipt, err := c.TransactionReceipt(ctx, txHash)
	if err != nil {
		return 0, err
	}
	for _, l := range receipt.Logs {
		if l.Address != c.coreBridge || len(l.Topics) == 0 || l.Topics[0] != logMessagePublishedSignatureHash {
			continue
		}
		// first non-indexed field is the uint64 sequence
		if len(l.Data) < 32 {
			return 0, errors.Wrap(gerror.ErrDecode, "LogMessagePublished data too short")
		}
		return new(big.Int).SetBytes(l.Data[:32]).Int64(), nil
	}
	return 0, errors.Wrapf(gerror.ErrDataUnavailable, "no message published by %s", txHash.Hex())
}

// IsTransferCompleted asks the token bridge whether the transfer with the
// given digest has been redeemed.
func (c *Client) IsTransferCompleted(ctx context.Context, digest common.Hash) (bool, error) {
	data := make([]byte, 0, 36)
	data = append(data, isTransferCompletedSelector...)
	data = append(data, digest.Bytes()...)

	out, err := c.EtherClient.CallContract(ctx, ethereum.CallMsg{
		To:   &c.tokenBridge,
		Data: data,
	}, nil)
	if err != nil {
		return false, err
	}
	if len(out) < 32 {
		return false, errors.Wrap(gerror.ErrDecode, "isTransferCompleted returned short word")
	}
	return out[31] != 0, nil
}

// IsNonceUsed asks the message transmitter whether the burn with the given
// source domain and nonce has been received on this chain.
func (c *Client) IsNonceUsed(ctx context.Context, sourceDomain uint32, nonce uint64) (bool, error) {
	var key [12]byte
	binary.BigEndian.PutUint32(key[:4], sourceDomain)
	binary.BigEndian.PutUint64(key[4:], nonce)

	data := make([]byte, 0, 36)
	data = append(data, usedNoncesSelector...)
	data = append(data, crypto.Keccak256(key[:])...)

	out, err := c.EtherClient.CallContract(ctx, ethereum.CallMsg{
		To:   &c.messageTransmitter,
		Data: data,
	}, nil)
	if err != nil {
		return false, err
	}
	if len(out) < 32 {
		return false, errors.Wrap(gerror.ErrDecode, "usedNonces returned short word")
	}
	return out[31] != 0, nil
}

// unpackBytes unwraps a single abi-encoded dynamic bytes argument.
func unpackBytes(data []byte) ([]byte, error) {
	return unpackBytesAt(data, 0)
}

// unpackBytesAt unwraps the dynamic bytes argument whose offset sits at the
// given head word.
func unpackBytesAt(data []byte, word int) ([]byte, error) {
	head := (word + 1) * 32
	if len(data) < head+32 {
		return nil, errors.Wrap(gerror.ErrDecode, "event data too short for bytes argument")
	}
	offset := new(big.Int).SetBytes(data[head-32 : head]).Uint64()
	if offset+32 > uint64(len(data)) {
		return nil, errors.Wrap(gerror.ErrDecode, "bytes offset out of range")
	}
	length := new(big.Int).SetBytes(data[offset : offset+32]).Uint64()
	if offset+32+length > uint64(len(data)) {
		return nil, errors.Wrap(gerror.ErrDecode, "bytes length out of range")
	}
	return data[offset+32 : offset+32+length], nil
}
