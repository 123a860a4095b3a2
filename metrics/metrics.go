package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func initMetrics() {
	if !initialized {
		registerer = prometheus.DefaultRegisterer
		gauges = make(map[string]*prometheus.GaugeVec)
		counters = make(map[string]*prometheus.CounterVec)
		histograms = make(map[string]*prometheus.HistogramVec)
		initialized = true
	}

	registerCounter(prometheus.CounterOpts{Name: metricScannedTxCount}, labelChain, labelProtocol)
	registerCounter(prometheus.CounterOpts{Name: metricDecodeFailureCount}, labelChain, labelProtocol)
	registerHistogram(prometheus.HistogramOpts{Name: metricScannerRoundLatency}, labelChain, labelProtocol)
	registerCounter(prometheus.CounterOpts{Name: metricOrderCount}, labelService)
	registerCounter(prometheus.CounterOpts{Name: metricOrderTransition}, labelService, labelStatus)
	registerHistogram(prometheus.HistogramOpts{Name: metricOrderWaitTime}, labelService)
	registerGauge(prometheus.GaugeOpts{Name: metricOrderPending}, labelService)
	registerCounter(prometheus.CounterOpts{Name: metricFollowerTimeoutCount}, labelStep)
	registerHistogram(prometheus.HistogramOpts{Name: metricAttestationLatency}, labelChain)
}

// RecordScannedTx counts one inspected transaction
func RecordScannedTx(chainName, protocol string) {
	counterInc(metricScannedTxCount, map[string]string{labelChain: chainName, labelProtocol: protocol})
}

// RecordDecodeFailure counts one transaction the decoders rejected
func RecordDecodeFailure(chainName, protocol string) {
	counterInc(metricDecodeFailureCount, map[string]string{labelChain: chainName, labelProtocol: protocol})
}

// RecordScannerRound records the latency of a full signature scan round in milliseconds
func RecordScannerRound(chainName, protocol string, latency time.Duration) {
	histogramObserve(metricScannerRoundLatency, float64(latency/time.Millisecond),
		map[string]string{labelChain: chainName, labelProtocol: protocol})
}

// RecordOrderCreated counts one registered order
func RecordOrderCreated(service string) {
	counterInc(metricOrderCount, map[string]string{labelService: service})
}

// RecordOrderTransition counts one applied status transition
func RecordOrderTransition(service, status string) {
	counterInc(metricOrderTransition, map[string]string{labelService: service, labelStatus: status})
}

// RecordOrderWaitTime records how long an order took from creation to a terminal status
func RecordOrderWaitTime(service string, dur time.Duration) {
	histogramObserve(metricOrderWaitTime, float64(dur/time.Second), map[string]string{labelService: service})
}

// RecordPendingOrders reports how many orders of a service are in flight
func RecordPendingOrders(service string, count int) {
	gaugeSet(metricOrderPending, float64(count), map[string]string{labelService: service})
}

// RecordFollowerTimeout counts a follower step that exhausted its retry budget
func RecordFollowerTimeout(step string) {
	counterInc(metricFollowerTimeoutCount, map[string]string{labelStep: step})
}

// RecordAttestationLatency records how long the attestation service took to answer in milliseconds
func RecordAttestationLatency(chainName string, latency time.Duration) {
	histogramObserve(metricAttestationLatency, float64(latency/time.Millisecond),
		map[string]string{labelChain: chainName})
}
