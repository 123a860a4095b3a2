package metrics

// Metric types
const (
	typeGauge     = "gauge"
	typeCounter   = "counter"
	typeHistogram = "histogram"
)

// Metric names and labels
const (
	prefix = "mayan_watcher_"

	prefixScanner             = prefix + "scanner_"
	metricScannedTxCount      = prefixScanner + "tx_count"
	metricDecodeFailureCount  = prefixScanner + "decode_failure_count"
	metricScannerRoundLatency = prefixScanner + "round_latency_ms"
	labelChain                = "chain"
	labelProtocol             = "protocol"

	prefixOrder           = prefix + "order_"
	metricOrderCount      = prefixOrder + "count"
	metricOrderTransition = prefixOrder + "transition_count"
	metricOrderWaitTime   = prefixOrder + "wait_time_sec"
	metricOrderPending    = prefixOrder + "pending_count"
	labelService          = "service"
	labelStatus           = "status"

	prefixFollower             = prefix + "follower_"
	metricFollowerTimeoutCount = prefixFollower + "timeout_count"
	metricAttestationLatency   = prefixFollower + "attestation_latency_ms"
	labelStep                  = "step"
)
