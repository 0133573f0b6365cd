package kanban

import "fmt"

// NotFoundError means an id did not resolve within the caller's org.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// PermissionError means the acting user lacks standing for the operation.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// ValidationError is a caller mistake: bad move target, reorder id set
// mismatch, deletion blocked by referencing cards.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// WIPLimitError means the destination stage is already at capacity. The
// move is rejected with no mutation.
type WIPLimitError struct {
	StageName string
	Limit     int
}

func (e *WIPLimitError) Error() string {
	return fmt.Sprintf("WIP limit reached: stage %q allows at most %d cards", e.StageName, e.Limit)
}
