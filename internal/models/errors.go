package models

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyTracked = errors.New("product is already tracked")
)
