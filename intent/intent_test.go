package intent

import (
	"encoding/binary"
	"testing"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accounts(n int) []string {
	accs := make([]string, n)
	for i := range accs {
		accs[i] = "acc" + string(rune('A'+i))
	}
	return accs
}

func TestDecodeMctpInitBridgeLedger(t *testing.T) {
	data := make([]byte, initBridgeLedgerArgsLen)
	data[0] = opInitBridgeLedger
	data[1] = 0xee // dest address first byte
	binary.LittleEndian.PutUint64(data[41:49], 7)       // gas drop
	binary.LittleEndian.PutUint64(data[49:57], 150)     // fee redeem
	binary.LittleEndian.PutUint64(data[57:65], 5000)    // fee solana
	binary.LittleEndian.PutUint32(data[65:69], 6)       // base domain
	binary.LittleEndian.PutUint16(data[69:71], uint16(chain.Base))
	data[71] = byte(DepositWithFee)

	in, err := DecodeMctp(Instruction{Accounts: accounts(8), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, GoalRegisterBridge, in.Goal)
	assert.Equal(t, "accA", in.UserWallet)
	assert.Equal(t, "accB", in.LedgerAcc)
	assert.Equal(t, "accD", in.MintAcc)
	assert.Equal(t, "accH", in.ReferrerAcc)
	assert.Equal(t, byte(0xee), in.DestAddress[0])
	assert.Equal(t, uint64(7), in.GasDrop)
	assert.Equal(t, uint64(150), in.FeeRedeem)
	assert.Equal(t, uint64(5000), in.FeeSolana)
	assert.Equal(t, uint32(6), in.DestDomain)
	assert.Equal(t, chain.Base, in.DestChain)
	assert.Equal(t, order.ServiceMctpBridge, in.DepositMode.Service())
}

func TestDecodeMctpInitSwapLedger(t *testing.T) {
	data := make([]byte, initSwapLedgerArgsLen)
	data[0] = opInitSwapLedger
	binary.LittleEndian.PutUint16(data[69:71], uint16(chain.Arbitrum))
	data[71] = byte(DepositSwap)
	data[72] = 0xab // token out
	binary.LittleEndian.PutUint64(data[136:144], 990000)
	binary.LittleEndian.PutUint64(data[144:152], 1767225600)
	data[152] = 12

	in, err := DecodeMctp(Instruction{Accounts: accounts(8), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, GoalRegisterOrder, in.Goal)
	assert.Equal(t, chain.Arbitrum, in.DestChain)
	assert.Equal(t, order.ServiceMctpSwap, in.DepositMode.Service())
	assert.Equal(t, byte(0xab), in.TokenOut[0])
	assert.Equal(t, uint64(990000), in.MinAmountOut)
	assert.Equal(t, uint64(1767225600), in.Deadline)
	assert.Equal(t, uint8(12), in.ReferrerBps)
}

func TestDecodeMctpBridgeAndState(t *testing.T) {
	data := make([]byte, domainArgsMinLen)
	data[0] = opBridgeWithFee
	binary.LittleEndian.PutUint32(data[1:5], 0)

	in, err := DecodeMctp(Instruction{Accounts: accounts(14), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, GoalBridge, in.Goal)
	assert.Equal(t, "accA", in.LedgerAcc)
	assert.Equal(t, "accJ", in.CircleMsgAcc)
	assert.Equal(t, "accN", in.WormholeMsgAcc)
	assert.Equal(t, uint32(circleDomainSolana), in.SourceDomain)

	in, err = DecodeMctp(Instruction{Accounts: accounts(1), Data: []byte{opSettle}})
	require.NoError(t, err)
	assert.Equal(t, GoalSettle, in.Goal)
	assert.Equal(t, "accA", in.StateAcc)
}

func TestDecodeMctpRedeemCarriesMessage(t *testing.T) {
	data := make([]byte, redeemWithFeeArgsLen)
	data[0] = opRedeemWithFee
	data[33] = 0x01 // message version byte

	in, err := DecodeMctp(Instruction{Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, GoalRedeem, in.Goal)
	require.Len(t, in.CircleMessage, 248)
	assert.Equal(t, byte(0x01), in.CircleMessage[0])
}

func TestDecodeMctpUnknownOpcode(t *testing.T) {
	in, err := DecodeMctp(Instruction{Data: []byte{99}})
	require.NoError(t, err)
	assert.Nil(t, in)
}

func TestDecodeMctpMalformed(t *testing.T) {
	_, err := DecodeMctp(Instruction{Data: nil})
	require.ErrorIs(t, err, gerror.ErrDecode)

	// known opcode with a short blob is an error, not a skip
	_, err = DecodeMctp(Instruction{Accounts: accounts(8), Data: []byte{opInitBridgeLedger, 1, 2}})
	require.ErrorIs(t, err, gerror.ErrDecode)
}

func TestDecodeMctpV2OrderLedger(t *testing.T) {
	data := make([]byte, v2OrderLedgerArgsLen)
	data[0] = 0x11 // dest address
	binary.LittleEndian.PutUint64(data[32:40], 3) // gas drop
	binary.LittleEndian.PutUint16(data[56:58], uint16(chain.Base))
	data[58] = byte(DepositSwap)
	data[59] = 0x22 // token out
	binary.LittleEndian.PutUint64(data[123:131], 42)
	data[139] = 7

	in, err := DecodeMctpV2(Instruction{Name: "initOrderLedger", Accounts: accounts(4), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, ProtocolMctpV2, in.Protocol)
	assert.Equal(t, GoalRegisterOrder, in.Goal)
	assert.Equal(t, byte(0x11), in.DestAddress[0])
	assert.Equal(t, byte(0x22), in.TokenOut[0])
	assert.Equal(t, chain.Base, in.DestChain)
	assert.Equal(t, uint64(42), in.MinAmountOut)
	assert.Equal(t, uint8(7), in.ReferrerBps)
}

func TestDecodeMctpV2Accounts(t *testing.T) {
	in, err := DecodeMctpV2(Instruction{Name: "createOrder", Accounts: accounts(14)})
	require.NoError(t, err)
	assert.Equal(t, GoalCreateOrder, in.Goal)
	assert.Equal(t, "accA", in.LedgerAcc)
	assert.Equal(t, "accF", in.StateAcc)
	assert.Equal(t, "accN", in.CircleMsgAcc)

	in, err = DecodeMctpV2(Instruction{Name: "settleOrder", Accounts: accounts(1)})
	require.NoError(t, err)
	assert.Equal(t, GoalSettle, in.Goal)

	in, err = DecodeMctpV2(Instruction{Name: "somethingElse"})
	require.NoError(t, err)
	assert.Nil(t, in)

	_, err = DecodeMctpV2(Instruction{Name: "createOrder", Accounts: accounts(3)})
	require.ErrorIs(t, err, gerror.ErrDecode)
}

func TestDecodeMctpV2Redeem(t *testing.T) {
	for _, name := range []string{"redeemWithFee", "redeemWithFeeShim", "redeemWithFeeCustomPayload"} {
		in, err := DecodeMctpV2(Instruction{Name: name, Data: make([]byte, 248)})
		require.NoError(t, err, name)
		assert.Equal(t, GoalRedeem, in.Goal)
		assert.Len(t, in.CircleMessage, 248)
	}
}

func TestDecodeSwiftInitOrder(t *testing.T) {
	data := make([]byte, initOrderArgsLen)
	binary.LittleEndian.PutUint64(data[0:8], 1000000) // amount in min
	data[8] = 1                                       // native input
	data[17] = 0x31                                   // dest address
	binary.LittleEndian.PutUint16(data[49:51], uint16(chain.Ethereum))
	binary.LittleEndian.PutUint64(data[83:91], 55)
	binary.LittleEndian.PutUint64(data[115:123], 1767225600)
	data[155] = 5
	data[156] = 3
	data[157] = 2
	data[158] = 0x99 // random key

	in, err := DecodeSwift(Instruction{Name: "initOrder", Accounts: accounts(6), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, ProtocolSwift, in.Protocol)
	assert.Equal(t, GoalCreateOrder, in.Goal)
	assert.Equal(t, "accA", in.UserWallet)
	assert.Equal(t, "accC", in.StateAcc)
	assert.Equal(t, "accF", in.MintAcc)
	assert.Equal(t, uint64(1000000), in.AmountInMin)
	assert.True(t, in.NativeInput)
	assert.Equal(t, byte(0x31), in.DestAddress[0])
	assert.Equal(t, chain.Ethereum, in.DestChain)
	assert.Equal(t, uint64(55), in.MinAmountOut)
	assert.Equal(t, uint8(5), in.ReferrerBps)
	assert.Equal(t, uint8(3), in.MayanBps)
	assert.Equal(t, uint8(2), in.AuctionMode)
	assert.Equal(t, byte(0x99), in.RandomKey[0])
}

func TestDecodeSwiftAccountPositions(t *testing.T) {
	in, err := DecodeSwift(Instruction{Name: "fulfill", Accounts: accounts(2)})
	require.NoError(t, err)
	assert.Equal(t, GoalFulfill, in.Goal)
	assert.Equal(t, "accA", in.StateAcc)
	assert.Equal(t, "accB", in.WinnerAcc)

	in, err = DecodeSwift(Instruction{Name: "registerOrder", Accounts: accounts(2)})
	require.NoError(t, err)
	assert.Equal(t, "accA", in.RelayerAcc)
	assert.Equal(t, "accB", in.StateAcc)

	in, err = DecodeSwift(Instruction{Name: "settle", Accounts: accounts(10)})
	require.NoError(t, err)
	assert.Equal(t, "accA", in.StateAcc)
	assert.Equal(t, "accE", in.DestAcc)
	assert.Equal(t, "accJ", in.DestAssAcc)

	in, err = DecodeSwift(Instruction{Name: "postUnlock", Accounts: accounts(13)})
	require.NoError(t, err)
	assert.Equal(t, GoalPostUnlock, in.Goal)
	assert.Equal(t, []string{"accK", "accL", "accM"}, in.StateAccs)

	in, err = DecodeSwift(Instruction{Name: "unknownThing"})
	require.NoError(t, err)
	assert.Nil(t, in)
}

func TestDecodeLegacyDefaultAndOverride(t *testing.T) {
	// default layout for opcode 101 carries an inline amount
	data := make([]byte, 16)
	data[0] = 101
	data[2] = 9 // state nonce at index 2
	binary.LittleEndian.PutUint64(data[3:11], 123456)

	in, err := DecodeLegacy(Instruction{ProgramID: "someNewProgram", Accounts: accounts(8), Data: data})
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, GoalRegisterBridge, in.Goal)
	assert.Equal(t, "accG", in.Agent)
	assert.Equal(t, "accE", in.StateAcc)
	assert.Equal(t, uint8(9), in.StateNonce)
	assert.Equal(t, uint64(123456), in.AmountIn)

	// the old program keys the same opcode differently
	data2 := make([]byte, 16)
	data2[0] = 101
	data2[1] = 4
	binary.LittleEndian.PutUint64(data2[2:10], 77)
	in, err = DecodeLegacy(Instruction{
		ProgramID: "FC4eXxkyrMPTjiYUpp4EAnkmwMbQyZ6NDCh1kfLn6vsf",
		Accounts:  accounts(15),
		Data:      data2,
	})
	require.NoError(t, err)
	assert.Equal(t, "accO", in.Agent)
	assert.Equal(t, "accD", in.StateAcc)
	assert.Equal(t, uint8(4), in.StateNonce)
	assert.Equal(t, uint64(77), in.AmountIn)
}

func TestDecodeLegacyUnindexedOpcode(t *testing.T) {
	in, err := DecodeLegacy(Instruction{Data: []byte{42, 0, 0}})
	require.NoError(t, err)
	assert.Nil(t, in)
}

func TestDecodeLegacyWithoutAgent(t *testing.T) {
	in, err := DecodeLegacy(Instruction{Accounts: accounts(1), Data: []byte{110, 3}})
	require.NoError(t, err)
	assert.Equal(t, GoalSwap, in.Goal)
	assert.Empty(t, in.Agent)
	assert.Equal(t, "accA", in.StateAcc)
	assert.Equal(t, uint8(3), in.StateNonce)
}

func TestDecodeLegacyShortAccounts(t *testing.T) {
	_, err := DecodeLegacy(Instruction{Accounts: accounts(1), Data: []byte{122, 0, 1}})
	require.ErrorIs(t, err, gerror.ErrDecode)
}

func TestExtractWriterPayloads(t *testing.T) {
	payloads := ExtractWriterPayloads("writerProg", []Instruction{
		{ProgramID: "writerProg", Name: "createSimple", Accounts: []string{"payer", "store1"}, Data: []byte{1, 2, 3}},
		{ProgramID: "writerProg", Name: "somethingElse", Accounts: []string{"payer", "store2"}, Data: []byte{9}},
		{ProgramID: "otherProg", Name: "createSimple", Accounts: []string{"payer", "store3"}, Data: []byte{9}},
	})
	require.Len(t, payloads, 1)
	assert.Equal(t, []byte{1, 2, 3}, payloads["store1"])
}

func TestProtocolBps(t *testing.T) {
	assert.Equal(t, uint8(0), ProtocolBpsV1(0))
	assert.Equal(t, uint8(20), ProtocolBpsV1(20))

	assert.Equal(t, uint8(3), ProtocolBpsV2(0))
	assert.Equal(t, uint8(3), ProtocolBpsV2(2))
	assert.Equal(t, uint8(50), ProtocolBpsV2(50))

	assert.Equal(t, uint8(10), ProtocolBpsLedger(false, 4))
	assert.Equal(t, uint8(25), ProtocolBpsLedger(false, 25))
	assert.Equal(t, uint8(3), ProtocolBpsLedger(true, 25))
}

func TestExtractDispatch(t *testing.T) {
	in, err := Extract(ProtocolMctp, Instruction{Accounts: accounts(1), Data: []byte{opRefund}})
	require.NoError(t, err)
	assert.Equal(t, GoalRefund, in.Goal)

	in, err = Extract(ProtocolWhSwap, Instruction{Accounts: accounts(2), Data: []byte{120, 5}})
	require.NoError(t, err)
	assert.Equal(t, GoalBridge, in.Goal)
	assert.Equal(t, ProtocolWhSwap, in.Protocol)

	in, err = Extract(ProtocolSwift, Instruction{Name: "close", Accounts: accounts(1)})
	require.NoError(t, err)
	assert.Equal(t, GoalClose, in.Goal)
}
