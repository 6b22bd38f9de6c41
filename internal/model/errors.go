package model

import "errors"

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserDoesNotExist  = errors.New("user does not exist")
	ErrBabyDoesNotExist  = errors.New("baby does not exist")
)
