package wire

import (
	"encoding/binary"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/pkg/errors"
)

// CircleMessage lengths.
const (
	CircleMessageLen        = 248
	fastCircleMessageMinLen = 376
)

// CircleMessage is the burn message observed on the source chain.
type CircleMessage struct {
	Version        uint8
	SourceDomain   uint32
	DestDomain     uint32
	Nonce          uint64
	Sender         chain.Address
	Recipient      chain.Address
	DestCaller     chain.Address
	BodyVersion    uint32
	BurnToken      chain.Address
	RecipientToken chain.Address
	Amount         uint64
	EmitterSource  chain.Address
}

// ParseCircleMessage decodes the fixed-size 248-byte burn message.
func ParseCircleMessage(buf []byte) (*CircleMessage, error) {
	if len(buf) != CircleMessageLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "circle message length %d, want %d", len(buf), CircleMessageLen)
	}
	msg := &CircleMessage{
		Version:      buf[0],
		SourceDomain: binary.BigEndian.Uint32(buf[4:8]),
		DestDomain:   binary.BigEndian.Uint32(buf[8:12]),
		Nonce:        binary.BigEndian.Uint64(buf[12:20]),
		BodyVersion:  binary.BigEndian.Uint32(buf[116:120]),
		Amount:       binary.BigEndian.Uint64(buf[208:216]),
	}
	copy(msg.Sender[:], buf[20:52])
	copy(msg.Recipient[:], buf[52:84])
	copy(msg.DestCaller[:], buf[84:116])
	copy(msg.BurnToken[:], buf[120:152])
	copy(msg.RecipientToken[:], buf[152:184])
	copy(msg.EmitterSource[:], buf[216:248])
	return msg, nil
}

// Marshal serializes the message back into its 248-byte wire form.
func (m *CircleMessage) Marshal() []byte {
	buf := make([]byte, CircleMessageLen)
	buf[0] = m.Version
	binary.BigEndian.PutUint32(buf[4:8], m.SourceDomain)
	binary.BigEndian.PutUint32(buf[8:12], m.DestDomain)
	binary.BigEndian.PutUint64(buf[12:20], m.Nonce)
	copy(buf[20:52], m.Sender[:])
	copy(buf[52:84], m.Recipient[:])
	copy(buf[84:116], m.DestCaller[:])
	binary.BigEndian.PutUint32(buf[116:120], m.BodyVersion)
	copy(buf[120:152], m.BurnToken[:])
	copy(buf[152:184], m.RecipientToken[:])
	binary.BigEndian.PutUint64(buf[208:216], m.Amount)
	copy(buf[216:248], m.EmitterSource[:])
	return buf
}

// FastCircleMessage is the fast-finality variant of the burn message. The
// hook bytes after the fixed header are kept raw, use ParseMayanHook on them.
type FastCircleMessage struct {
	Version                   uint8
	SourceDomain              uint32
	DestDomain                uint32
	Nonce                     [32]byte
	Sender                    chain.Address
	Recipient                 chain.Address
	DestCaller                chain.Address
	MinFinalityThreshold      uint32
	FinalityThresholdExecuted uint32
	BodyVersion               uint32
	BurnToken                 chain.Address
	RecipientToken            chain.Address
	Amount                    uint64
	MessageSender             chain.Address
	MaxFee                    uint64
	FeeExecuted               uint64
	ExpirationBlock           uint64
	HookData                  []byte
}

// ParseFastCircleMessage decodes the fast burn message header and carves out
// the trailing hook bytes.
func ParseFastCircleMessage(buf []byte) (*FastCircleMessage, error) {
	if len(buf) < fastCircleMessageMinLen {
		return nil, errors.Wrapf(gerror.ErrDecode, "fast circle message length %d, want at least %d", len(buf), fastCircleMessageMinLen)
	}
	msg := &FastCircleMessage{
		Version:                   buf[0],
		SourceDomain:              binary.BigEndian.Uint32(buf[4:8]),
		DestDomain:                binary.BigEndian.Uint32(buf[8:12]),
		MinFinalityThreshold:      binary.BigEndian.Uint32(buf[140:144]),
		FinalityThresholdExecuted: binary.BigEndian.Uint32(buf[144:148]),
		BodyVersion:               binary.BigEndian.Uint32(buf[148:152]),
		Amount:                    binary.BigEndian.Uint64(buf[240:248]),
		MaxFee:                    binary.BigEndian.Uint64(buf[304:312]),
		FeeExecuted:               binary.BigEndian.Uint64(buf[336:344]),
		ExpirationBlock:           binary.BigEndian.Uint64(buf[368:376]),
	}
	copy(msg.Nonce[:], buf[12:44])
	copy(msg.Sender[:], buf[44:76])
	copy(msg.Recipient[:], buf[76:108])
	copy(msg.DestCaller[:], buf[108:140])
	copy(msg.BurnToken[:], buf[152:184])
	copy(msg.RecipientToken[:], buf[184:216])
	copy(msg.MessageSender[:], buf[248:280])
	msg.HookData = buf[fastCircleMessageMinLen:]
	return msg, nil
}
