package core

import (
	"context"
)

// JobDispatcher accepts background review work triggered by webhooks.
// Dispatch must not block on the job itself; a full queue is reported as an
// error so the caller can apply backpressure.
type JobDispatcher interface {
	Dispatch(ctx context.Context, event *GitHubEvent) error
	// Stop drains queued jobs and waits for in-flight ones to finish.
	Stop()
}

// Job is one unit of background work, such as a pull request batch review.
type Job interface {
	Run(ctx context.Context, event *GitHubEvent) error
}
