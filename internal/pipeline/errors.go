package pipeline

import (
	"errors"
	"fmt"
)

// FailStage classifies where a job failed, so the CLI can map failures to
// distinct exit codes.
type FailStage string

const (
	FailSource FailStage = "source" // metadata, download, probe
	FailEncode FailStage = "encode"
)

type stageError struct {
	stage FailStage
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func fail(stage FailStage, format string, args ...any) error {
	return &stageError{stage: stage, err: fmt.Errorf(format, args...)}
}

// StageOf reports which stage err came from, or "" when it carries none.
func StageOf(err error) FailStage {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return ""
}
