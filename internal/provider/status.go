package provider

import "strings"

// mapWireStatus collapses the status vocabulary of the /v1/videos wire
// format (shared by the dayangyu, guanfang, and bandianwa vendors, and
// by the xiaobanshou variant) to the canonical values. Unrecognized
// strings map to processing so an unknown intermediate state keeps
// being polled instead of failing the job prematurely.
func mapWireStatus(apiStatus string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(apiStatus)) {
	case "pending", "queued":
		return JobPending
	case "processing", "running":
		return JobProcessing
	case "success", "succeeded", "completed", "done":
		return JobCompleted
	case "failed", "error", "cancelled":
		return JobFailed
	default:
		return JobProcessing
	}
}
