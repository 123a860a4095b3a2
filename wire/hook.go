package wire

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// Hook payload lengths discriminate the variant.
const (
	bridgeHookLen = 114
	orderHookLen  = 138
)

// Hook is the forwarding instruction appended to a fast burn message. The
// concrete type is either BridgeHook or OrderHook.
type Hook interface {
	hook()
}

// BridgeHook asks the destination to hand the funds over, optionally with a
// custom payload for the receiver contract.
type BridgeHook struct {
	PayloadType   uint8
	DestAddr      chain.Address
	GasDrop       uint64
	RedeemFee     uint64
	ReferrerAddr  chain.Address
	ReferrerBps   uint8
	CustomPayload [32]byte
}

func (BridgeHook) hook() {}

// OrderHook asks the destination to swap into another token before handing
// the funds over.
type OrderHook struct {
	PayloadType  uint8
	DestAddr     chain.Address
	TokenOut     chain.Address
	MinAmountOut uint64
	GasDrop      uint64
	RedeemFee    uint64
	RefundFee    uint64
	Deadline     uint64
	ReferrerAddr chain.Address
	ReferrerBps  uint8
}

func (OrderHook) hook() {}

// Marshal serializes the hook into its 114-byte wire form.
func (h BridgeHook) Marshal() []byte {
	buf := make([]byte, bridgeHookLen)
	buf[0] = h.PayloadType
	copy(buf[1:33], h.DestAddr[:])
	binary.BigEndian.PutUint64(buf[33:41], h.GasDrop)
	binary.BigEndian.PutUint64(buf[41:49], h.RedeemFee)
	copy(buf[49:81], h.ReferrerAddr[:])
	buf[81] = h.ReferrerBps
	copy(buf[82:114], h.CustomPayload[:])
	return buf
}

// Marshal serializes the hook into its 138-byte wire form.
func (h OrderHook) Marshal() []byte {
	buf := make([]byte, orderHookLen)
	buf[0] = h.PayloadType
	copy(buf[1:33], h.DestAddr[:])
	copy(buf[33:65], h.TokenOut[:])
	binary.BigEndian.PutUint64(buf[65:73], h.MinAmountOut)
	binary.BigEndian.PutUint64(buf[73:81], h.GasDrop)
	binary.BigEndian.PutUint64(buf[81:89], h.RedeemFee)
	binary.BigEndian.PutUint64(buf[89:97], h.RefundFee)
	binary.BigEndian.PutUint64(buf[97:105], h.Deadline)
	copy(buf[105:137], h.ReferrerAddr[:])
	buf[137] = h.ReferrerBps
	return buf
}

// ParseMayanHook decodes a hook payload. The variant is picked by the exact
// buffer length, any other length is malformed.
func ParseMayanHook(buf []byte) (Hook, error) {
	switch len(buf) {
	case bridgeHookLen:
		h := BridgeHook{
			PayloadType: buf[0],
			GasDrop:     binary.BigEndian.Uint64(buf[33:41]),
			RedeemFee:   binary.BigEndian.Uint64(buf[41:49]),
			ReferrerBps: buf[81],
		}
		copy(h.DestAddr[:], buf[1:33])
		copy(h.ReferrerAddr[:], buf[49:81])
		copy(h.CustomPayload[:], buf[82:114])
		return h, nil
	case orderHookLen:
		h := OrderHook{
			PayloadType:  buf[0],
			MinAmountOut: binary.BigEndian.Uint64(buf[65:73]),
			GasDrop:      binary.BigEndian.Uint64(buf[73:81]),
			RedeemFee:    binary.BigEndian.Uint64(buf[81:89]),
			RefundFee:    binary.BigEndian.Uint64(buf[89:97]),
			Deadline:     binary.BigEndian.Uint64(buf[97:105]),
			ReferrerBps:  buf[137],
		}
		copy(h.DestAddr[:], buf[1:33])
		copy(h.TokenOut[:], buf[33:65])
		copy(h.ReferrerAddr[:], buf[105:137])
		return h, nil
	default:
		return nil, errors.Wrapf(gerror.ErrDecode, "hook payload length %d, want %d or %d", len(buf), bridgeHookLen, orderHookLen)
	}
}
