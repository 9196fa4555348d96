package models

// Well-known threshold keys
const (
	MetricCPU           = "cpu"
	MetricMemory        = "memory"
	MetricDisk          = "disk"
	MetricResponseTime  = "responseTime"
	MetricErrorRate     = "errorRate"
	MetricDBConnections = "databaseConnections"
)

// ThresholdSet maps each monitored metric to its trigger limit.
// Percentage metrics are constrained to [0,100]; responseTime is
// milliseconds and only needs to be non-negative.
type ThresholdSet map[string]float64

// Clone returns an independent copy of the set
func (t ThresholdSet) Clone() ThresholdSet {
	out := make(ThresholdSet, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
