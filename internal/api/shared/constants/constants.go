package constants

const (
	MAX_BENCHMARK_VALUES_PER_REQUEST = 10000
	MAX_ALERT_HISTORY_LIMIT          = 200
	MAX_MARKETPLACE_LIMIT            = 100
	DEFAULT_MARKETPLACE_LIMIT        = 20
	DEFAULT_OFFSET                   = 0
)
