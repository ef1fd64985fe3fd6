package errs

import "errors"

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrProviderNotFound = errors.New("provider not found")
	ErrIssueNotFound    = errors.New("issue not found")
	ErrSLANotFound      = errors.New("sla tracking not found")

	ErrInvalidCategory = errors.New("invalid issue category")
	ErrInvalidPriority = errors.New("invalid issue priority")
)
