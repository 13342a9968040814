package gateway

import "expvar"

// stats is published under /debug/vars. It is process-wide so several
// gateways in one process (tests) share the counters.
var stats = expvar.NewMap("fair_gateway")

const (
	statRelaysStarted   = "relays_started"
	statRelaysCompleted = "relays_completed"
	statRelaysAborted   = "relays_aborted"
	statBytesRelayed    = "bytes_relayed"
	statMarkers         = "markers_extracted"
	statMalformed       = "markers_malformed"
	statUpstreamErrors  = "upstream_errors"
	statJobsDropped     = "jobs_dropped"
)
