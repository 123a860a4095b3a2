package intent

// Protocol fee floors in basis points.
const (
	// mayanBpsFloorV2 is the smallest protocol cut a v2 order commits to.
	mayanBpsFloorV2 = 3
	// mayanBpsFloorLedger is the smallest protocol cut of a first-version
	// circle ledger.
	mayanBpsFloorLedger = 10
)

// ProtocolBpsV1 returns the protocol cut of a first-layout order. It simply
// mirrors the referrer cut.
func ProtocolBpsV1(referrerBps uint8) uint8 {
	if referrerBps > 0 {
		return referrerBps
	}
	return 0
}

// ProtocolBpsV2 returns the protocol cut of a second-layout order.
func ProtocolBpsV2(referrerBps uint8) uint8 {
	if referrerBps < mayanBpsFloorV2 {
		return mayanBpsFloorV2
	}
	return referrerBps
}

// ProtocolBpsLedger returns the protocol cut of a circle ledger deposit.
func ProtocolBpsLedger(v2 bool, referrerBps uint8) uint8 {
	if v2 {
		return mayanBpsFloorV2
	}
	if referrerBps < mayanBpsFloorLedger {
		return mayanBpsFloorLedger
	}
	return referrerBps
}
