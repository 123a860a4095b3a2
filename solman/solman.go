// Package solman talks to a solana rpc node. It fetches signature listings,
// transactions and raw account data, and decodes program instructions into
// the shape the rest of the watcher consumes.
package solman

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// SignatureInfo is one entry of a signature listing.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime int64
	Failed    bool
}

// RawTransaction is a fetched solana transaction with its instructions
// already base58-decoded.
type RawTransaction struct {
	Signature    string
	Slot         uint64
	BlockTime    int64
	Failed       bool
	Instructions []intent.Instruction
	// InnerInstructions are cpi calls, flattened.
	InnerInstructions []intent.Instruction
}

// Config is the solana rpc client configuration.
type Config struct {
	// URL is the rpc endpoint.
	URL string `mapstructure:"URL"`
}

// Client is a json-rpc solana client.
type Client struct {
	url   string
	http  *http.Client
	reqID atomic.Uint64

	// discriminators maps program id to the known instruction
	// discriminators of that program.
	discriminators map[string]map[[8]byte]string
}

// NewClient creates a solana rpc client for the given endpoint.
func NewClient(cfg Config) *Client {
	return &Client{
		url:            cfg.URL,
		http:           &http.Client{},
		discriminators: make(map[string]map[[8]byte]string),
	}
}

// RegisterProgram teaches the client the instruction names of an anchor
// program, so fetched instructions come back name-keyed. Programs that are
// not registered keep their raw opcode-prefixed data.
func (c *Client) RegisterProgram(programID string, names []string) {
	m := make(map[[8]byte]string, len(names))
	for _, name := range names {
		m[anchorDiscriminator(name)] = name
	}
	c.discriminators[programID] = m
}

// anchorDiscriminator is the 8-byte prefix anchor derives from the
// instruction name.
func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s", method)
	}
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return errors.Wrapf(err, "decoding %s response", method)
	}
	if rpcResp.Error != nil {
		return errors.Wrapf(rpcResp.Error, "calling %s", method)
	}
	if result != nil {
		return json.Unmarshal(rpcResp.Result, result)
	}
	return nil
}

type signatureEntry struct {
	Signature string          `json:"signature"`
	Slot      uint64          `json:"slot"`
	BlockTime int64           `json:"blockTime"`
	Err       json.RawMessage `json:"err"`
}

// GetSignaturesForAddress lists signatures touching the address, newest
// first, bounded by the before and until cursors when set.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address, before, until string, limit int) ([]SignatureInfo, error) {
	opts := map[string]interface{}{"limit": limit}
	if before != "" {
		opts["before"] = before
	}
	if until != "" {
		opts["until"] = until
	}
	var entries []signatureEntry
	if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, opts}, &entries); err != nil {
		return nil, err
	}
	infos := make([]SignatureInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, SignatureInfo{
			Signature: e.Signature,
			Slot:      e.Slot,
			BlockTime: e.BlockTime,
			Failed:    len(e.Err) > 0 && string(e.Err) != "null",
		})
	}
	return infos, nil
}

type rawInstruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
}

type transactionResult struct {
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime"`
	Meta      *struct {
		Err               json.RawMessage `json:"err"`
		InnerInstructions []struct {
			Instructions []rawInstruction `json:"instructions"`
		} `json:"innerInstructions"`
		LoadedAddresses struct {
			Writable []string `json:"writable"`
			Readonly []string `json:"readonly"`
		} `json:"loadedAddresses"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []string         `json:"accountKeys"`
			Instructions []rawInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// GetTransaction fetches one transaction by signature. Missing transactions
// come back as ErrDataUnavailable so callers can retry.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*RawTransaction, error) {
	opts := map[string]interface{}{
		"encoding":                       "json",
		"maxSupportedTransactionVersion": 0,
	}
	var result *transactionResult
	if err := c.call(ctx, "getTransaction", []interface{}{signature, opts}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.Wrapf(gerror.ErrDataUnavailable, "transaction %s", signature)
	}

	keys := result.Transaction.Message.AccountKeys
	if result.Meta != nil {
		keys = append(keys, result.Meta.LoadedAddresses.Writable...)
		keys = append(keys, result.Meta.LoadedAddresses.Readonly...)
	}

	tx := &RawTransaction{
		Signature: signature,
		Slot:      result.Slot,
		BlockTime: result.BlockTime,
	}
	for _, ri := range result.Transaction.Message.Instructions {
		ins, err := c.decodeInstruction(ri, keys)
		if err != nil {
			log.Warnf("skipping undecodable instruction in %s: %v", signature, err)
			continue
		}
		tx.Instructions = append(tx.Instructions, ins)
	}
	if result.Meta != nil {
		tx.Failed = len(result.Meta.Err) > 0 && string(result.Meta.Err) != "null"
		for _, inner := range result.Meta.InnerInstructions {
			for _, ri := range inner.Instructions {
				ins, err := c.decodeInstruction(ri, keys)
				if err != nil {
					continue
				}
				tx.InnerInstructions = append(tx.InnerInstructions, ins)
			}
		}
	}
	return tx, nil
}

func (c *Client) decodeInstruction(ri rawInstruction, keys []string) (intent.Instruction, error) {
	if ri.ProgramIDIndex < 0 || ri.ProgramIDIndex >= len(keys) {
		return intent.Instruction{}, errors.Wrapf(gerror.ErrDecode, "program index %d out of %d keys", ri.ProgramIDIndex, len(keys))
	}
	data, err := base58.Decode(ri.Data)
	if err != nil {
		return intent.Instruction{}, errors.Wrap(gerror.ErrDecode, err.Error())
	}
	ins := intent.Instruction{
		ProgramID: keys[ri.ProgramIDIndex],
		Data:      data,
	}
	for _, idx := range ri.Accounts {
		if idx < 0 || idx >= len(keys) {
			return intent.Instruction{}, errors.Wrapf(gerror.ErrDecode, "account index %d out of %d keys", idx, len(keys))
		}
		ins.Accounts = append(ins.Accounts, keys[idx])
	}
	if names, ok := c.discriminators[ins.ProgramID]; ok && len(data) >= 8 {
		var d [8]byte
		copy(d[:], data[:8])
		if name, ok := names[d]; ok {
			ins.Name = name
			ins.Data = data[8:]
		}
	}
	return ins, nil
}

type accountInfoResult struct {
	Value *struct {
		Data []string `json:"data"`
	} `json:"value"`
}

// GetAccountData fetches the raw data of an account. Closed or missing
// accounts come back as ErrDataUnavailable.
func (c *Client) GetAccountData(ctx context.Context, address string) ([]byte, error) {
	opts := map[string]interface{}{"encoding": "base64"}
	var result accountInfoResult
	if err := c.call(ctx, "getAccountInfo", []interface{}{address, opts}, &result); err != nil {
		return nil, err
	}
	if result.Value == nil || len(result.Value.Data) == 0 {
		return nil, errors.Wrapf(gerror.ErrDataUnavailable, "account %s", address)
	}
	data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
	if err != nil {
		return nil, errors.Wrap(gerror.ErrDecode, err.Error())
	}
	return data, nil
}
