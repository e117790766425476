package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Components wrap failures with the matching kind so callers can
// classify with errors.Is without depending on provider packages.
var (
	// ErrConfiguration marks invalid construction-time parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrIndexProvisioning marks index creation or readiness failures.
	ErrIndexProvisioning = errors.New("index provisioning failed")
	// ErrRetrieval marks embedding or similarity-search failures during a query.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration marks completion or streaming failures.
	ErrGeneration = errors.New("generation failed")
)

// IngestError reports a failed ingestion batch. Chunks in earlier batches are
// confirmed upserted; the caller decides whether to retry the listed chunks.
type IngestError struct {
	Batch     int      // zero-based ordinal of the failed batch
	ChunkIDs  []string // IDs of every chunk in the failed batch
	Confirmed int      // chunks successfully upserted before the failure
	Err       error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest batch %d failed (%d chunks, %d confirmed): %v",
		e.Batch, len(e.ChunkIDs), e.Confirmed, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }
