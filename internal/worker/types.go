package worker

import (
	"context"

	"misinfo/features/job"
)

// Checker asks a generative model whether text looks like misinformation.
type Checker interface {
	Check(ctx context.Context, text string) (string, error)
}

type ContentStore interface {
	GetText(ctx context.Context, id string) (string, error)
	SaveAnalysis(ctx context.Context, id, analysis string) error
}

type FailedJobSaver interface {
	Save(ctx context.Context, j *job.Job) error
}

type CheckRecorder interface {
	ObserveCheck(status string)
}
