package enums

// OutboxDLQErrorReason records why an outbox row was parked in the dead-letter table.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: every publish attempt failed transiently.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row cannot be routed or decoded as stored.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonNoPublisher: the event's topic could not be opened.
	OutboxDLQReasonNoPublisher OutboxDLQErrorReason = "no_publisher"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonNoPublisher:
		return true
	}
	return false
}
