package domain

import "errors"

var (
	ErrInvalidRule         = errors.New("invalid recurrence rule")
	ErrRecurrenceExhausted = errors.New("recurrence did not converge within the iteration cap")
	ErrContentMissing      = errors.New("content not found")
	ErrConflictUnresolved  = errors.New("no conflict-free slot within the retry budget")
	ErrStoreUnavailable    = errors.New("schedule store unavailable")

	ErrRuleNotFound     = errors.New("recurrence rule not found")
	ErrPostNotFound     = errors.New("scheduled post not found")
	ErrTemplateNotFound = errors.New("schedule template not found")
	ErrClaimLost        = errors.New("rule claim lost or rule changed concurrently")
	ErrInvalidStrategy  = errors.New("unknown conflict resolution strategy")
	ErrInvalidStatus    = errors.New("invalid status transition")
)
