package memory

// FollowUpDetector decides whether a message leans on earlier turns
// ("what about next week?") instead of restating its entities.
type FollowUpDetector interface {
	IsFollowUp(message string) bool
}

// FollowUpFunc adapts a plain function to FollowUpDetector.
type FollowUpFunc func(message string) bool

func (f FollowUpFunc) IsFollowUp(message string) bool {
	return f(message)
}
