package types

import "errors"

// Domain errors
var (
	// ErrInvalidPhrase is returned when a phrase record fails validation
	ErrInvalidPhrase = errors.New("invalid phrase")
	// ErrPhraseNotFound is returned when no phrase has the requested ID
	ErrPhraseNotFound = errors.New("phrase not found")
	// ErrEmptyBatch is returned when an insert batch contains no records
	ErrEmptyBatch = errors.New("empty phrase batch")
)
