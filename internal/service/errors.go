package service

import "errors"

var (
	ErrValidation          = errors.New("validation")            // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")   // 401
	ErrForbidden           = errors.New("forbidden")             // 403
	ErrNotFound            = errors.New("not found")             // 404
	ErrConflict            = errors.New("conflict")              // 409
	ErrInsufficientBalance = errors.New("insufficient balance")  // 409
	ErrPaymentIncomplete   = errors.New("payment not completed") // 402
	ErrUpstream            = errors.New("payment gateway error") // 502
)
