package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_BlockSynced     = "blockSynced"
	Metric_Incr_CommandApplied  = "commandApplied"
	Metric_Incr_ContractError   = "contractError"
	Metric_Incr_AlreadySynced   = "alreadySynced"
	Metric_Incr_HttpRequest     = "rpc.http.request"
	Metric_Gauge_CurrentSyncedBlock = "currentSyncedBlock"
	Metric_Gauge_ChainTip           = "chainTip"

	Metric_Timing_BlockSyncDuration = "block.sync.duration"
	Metric_Timing_HttpDuration      = "rpc.http.duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_BlockSynced,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_CommandApplied,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ContractError,
			Labels: []string{"kind"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_AlreadySynced,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_HttpRequest,
			Labels: []string{"route"},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_CurrentSyncedBlock,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_ChainTip,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_BlockSyncDuration,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_HttpDuration,
			Labels: []string{"route"},
		},
	},
}
