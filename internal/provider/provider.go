package provider

import (
	"context"
	"net/http"
	"time"
)

// JobStatus is the canonical status vocabulary every vendor collapses to.
type JobStatus string

// Canonical job status values
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Vendor identifiers, matched against the vendor-selection settings.
const (
	VendorDayangyu    = "dayangyu"
	VendorYunwu       = "yunwu"
	VendorXiaobanshou = "xiaobanshou"
	VendorGuanfang    = "guanfang"
	VendorBandianwa   = "bandianwa"
)

// JobSnapshot is a normalized view of a remote job, returned by both
// CreateJob and QueryJob. It is a value type; the task processor folds
// it into the persisted task record.
type JobSnapshot struct {
	// RemoteID is the provider-assigned job identifier. Empty when the
	// create call failed before a job existed.
	RemoteID string

	Status JobStatus

	// VideoURL is set once the remote job has completed.
	VideoURL string

	// ErrorMessage explains a failed status, whether the failure came
	// from the provider's own job state or from a transport problem.
	ErrorMessage string

	// Progress is a completion percentage when the vendor reports one.
	Progress int
}

// CreateRequest carries the inputs for a remote job. Adapters use the
// fields their wire format understands and ignore the rest: model-based
// vendors read Model, the yunwu wire reads Orientation and Duration.
type CreateRequest struct {
	Prompt    string
	ImagePath string

	Model       string
	Orientation string
	Duration    int
}

// Adapter is the three-operation contract every vendor satisfies.
type Adapter interface {
	// Name returns the vendor identifier, used in log lines.
	Name() string

	// CreateJob submits a new remote job. Any transport-level failure
	// (connection error, timeout, non-2xx response, malformed body) is
	// reported as a snapshot with status JobFailed, never as a panic or
	// a vendor-specific error the caller would have to interpret.
	CreateJob(ctx context.Context, req CreateRequest) JobSnapshot

	// QueryJob polls an existing remote job. An empty remote ID returns
	// a failed snapshot with an explanatory message.
	QueryJob(ctx context.Context, remoteID string) JobSnapshot
}

// ArtifactFetcher is the optional direct-download capability. Callers
// discover it with a type assertion on the adapter; absence of the
// interface is distinguishable from a fetch that failed, so the
// download step can fall back to the artifact URL.
type ArtifactFetcher interface {
	// FetchArtifact retrieves the finished artifact bytes and their
	// content type for the given remote job.
	FetchArtifact(ctx context.Context, remoteID string) ([]byte, string, error)
}

// SupportsArtifactFetch reports whether the adapter can retrieve
// artifacts directly. The capability lives on the adapter itself rather
// than on configuration strings, so adding a vendor cannot drift.
func SupportsArtifactFetch(a Adapter) bool {
	_, ok := a.(ArtifactFetcher)
	return ok
}

// failedSnapshot builds the uniform failure value adapters return for
// any transport or protocol problem.
func failedSnapshot(remoteID, message string) JobSnapshot {
	return JobSnapshot{
		RemoteID:     remoteID,
		Status:       JobFailed,
		ErrorMessage: message,
	}
}

// defaultHTTPClient applies the shared timeout when the composition
// root did not inject a client.
func defaultHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 60 * time.Second}
}
