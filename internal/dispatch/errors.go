package dispatch

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageModel  Stage = "model"
	StageTool   Stage = "tool"
	StageRounds Stage = "max_rounds"
)

// Error records where in the loop a turn stopped. The cause keeps its
// category, so errors.Is(err, errors.ErrUnknownTool) and friends still work.
type Error struct {
	Stage Stage
	Round int
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] round %d: %v", e.Stage, e.Round, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func asLoopError(err error, target **Error) bool {
	return errors.As(err, target)
}
