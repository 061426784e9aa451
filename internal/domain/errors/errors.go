package errors

import "errors"

var (
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyConfirmed = errors.New("review already confirmed")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidArgument  = errors.New("invalid argument")
)
