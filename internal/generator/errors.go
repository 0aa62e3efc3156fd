package generator

import "errors"

// Fatal compilation failures. Every one of these aborts the whole pass; the
// partially built graph must be discarded.
var (
	// ErrUnknownTransformation marks a transformation outside the closed
	// variant set. This is an integration bug, not user input.
	ErrUnknownTransformation = errors.New("unknown transformation variant")

	// ErrNoFeedbackEdges marks an iteration that was never closed.
	ErrNoFeedbackEdges = errors.New("iteration does not have any feedback edges")

	// ErrMissingUID marks a transformation without a stable identifier while
	// auto-generated uids are disabled.
	ErrMissingUID = errors.New("auto-generated uids are disabled but no uid or hash has been assigned")

	// ErrConsecutiveSplits marks a split chained onto a split or select.
	ErrConsecutiveSplits = errors.New("consecutive splits are not supported, use side outputs instead")

	// ErrSplitAfterSideOutput marks a split chained onto a side output.
	ErrSplitAfterSideOutput = errors.New("split after side output is not supported, use side outputs instead")
)
