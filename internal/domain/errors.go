package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNegativePrice is returned when an offer price is below zero
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrEntryNotFound is returned when a catalog entry does not exist
	ErrEntryNotFound = errors.New("catalog entry not found")

	// ErrOfferNotFound is returned when a supplier offer does not exist
	ErrOfferNotFound = errors.New("supplier offer not found")

	// ErrDuplicateItemCode is returned when a catalog import repeats an item code
	ErrDuplicateItemCode = errors.New("item code already exists")

	// ErrNoUsableColumns is returned when an uploaded sheet has no recognizable header row
	ErrNoUsableColumns = errors.New("no usable columns found in uploaded file")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
