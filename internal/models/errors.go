package models

import "errors"

var (
	ErrUnknownDepot   = errors.New("unknown depot reference")
	ErrEmptyMapping   = errors.New("vehicle has no mapped depots")
	ErrMissingSetting = errors.New("required setting is missing")
	ErrInvalidSetting = errors.New("invalid setting value")
	ErrDuplicateID    = errors.New("duplicate identifier")
	ErrInfeasible     = errors.New("depot requirement cannot be met within the lead-day bound")
	ErrAuditFailed    = errors.New("run failed verification")
)
