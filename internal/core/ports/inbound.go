package ports

import (
	"context"
)

// JobProcessor is the inbound contract for asynchronous anonymization jobs.
// The queue delivers a job id; retry on failure is the queue's decision.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}
