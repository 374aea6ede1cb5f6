package repo

import (
	"errors"

	"gorm.io/gorm"
)

// Domain conditions surfaced by conditional updates. Services translate
// these into their client-facing taxonomy.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyRedeemed     = errors.New("gift card already redeemed")
	ErrExpired             = errors.New("gift card expired")
	ErrAlreadySettled      = errors.New("session already settled")
)

type GormRepo struct {
	DB *gorm.DB
}
