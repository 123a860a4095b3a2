package chain

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// AddressLen is the canonical address width in bytes.
const AddressLen = 32

// evmPadLen is the zero pad in front of a 20-byte evm address.
const evmPadLen = 12

// Address is a 32-byte canonical cross-chain address.
type Address [AddressLen]byte

var zeroPad [evmPadLen]byte

// AddressFromBytes builds an Address from a raw 32-byte slice.
func AddressFromBytes(buf []byte) (Address, error) {
	var a Address
	if len(buf) != AddressLen {
		return a, errors.Wrapf(gerror.ErrDecode, "address length %d, want %d", len(buf), AddressLen)
	}
	copy(a[:], buf)
	return a, nil
}

// Bytes returns the raw 32 bytes of the address.
func (a Address) Bytes() []byte {
	return a[:]
}

// Hex returns the address as 0x-prefixed hex of all 32 bytes.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero tells whether every byte of the address is zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ToNative renders a canonical address in the native textual form of the
// given chain. For evm chains the 12-byte pad must be zero.
func (a Address) ToNative(c ID) (string, error) {
	switch {
	case c == Solana:
		return base58.Encode(a[:]), nil
	case c.IsEVM():
		if !bytes.Equal(a[:evmPadLen], zeroPad[:]) {
			return "", errors.Wrapf(gerror.ErrInvalidAddressPadding, "address %s on chain %s", a.Hex(), c.Name())
		}
		return common.BytesToAddress(a[evmPadLen:]).Hex(), nil
	case c == Sui || c == Aptos || c == Hypercore:
		// 32-byte chains keep the raw hex form
		return a.Hex(), nil
	default:
		return "", errors.Wrapf(gerror.ErrUnknownChainDomain, "no native address form for chain %d", c)
	}
}

// FromNative parses the native textual address form of the given chain into
// its 32-byte canonical form.
func FromNative(native string, c ID) (Address, error) {
	var a Address
	switch {
	case c == Solana:
		raw, err := base58.Decode(native)
		if err != nil {
			return a, errors.Wrapf(gerror.ErrDecode, "base58 address %q: %v", native, err)
		}
		return AddressFromBytes(raw)
	case c.IsEVM():
		if !common.IsHexAddress(native) {
			return a, errors.Wrapf(gerror.ErrDecode, "evm address %q", native)
		}
		copy(a[evmPadLen:], common.HexToAddress(native).Bytes())
		return a, nil
	case c == Sui || c == Aptos || c == Hypercore:
		raw, err := hex.DecodeString(strings.TrimPrefix(native, "0x"))
		if err != nil {
			return a, errors.Wrapf(gerror.ErrDecode, "hex address %q: %v", native, err)
		}
		return AddressFromBytes(raw)
	default:
		return a, errors.Wrapf(gerror.ErrUnknownChainDomain, "no native address form for chain %d", c)
	}
}
