package dto

// Res is the generic response envelope used by the ops HTTP surface.
type Res struct {
	ResponseCode    string      `json:"responseCode"`
	ResponseMessage string      `json:"responseMessage"`
	Data            interface{} `json:"data,omitempty"`
}

// JobStats is the per-job view returned by GET /api/jobs.
type JobStats struct {
	Name      string `json:"name"`
	Interval  string `json:"interval"`
	Runs      int64  `json:"runs"`
	Failures  int64  `json:"failures"`
	Skips     int64  `json:"skips"`
	LastRun   string `json:"lastRun,omitempty"`
	LastError string `json:"lastError,omitempty"`
	Running   bool   `json:"running"`
}
