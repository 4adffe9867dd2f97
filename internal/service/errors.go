package service

import (
	"errors"

	"ac-server/internal/repository"
)

// 校验类错误，直接返回给调用方，不作为错误日志记录
var (
	ErrNotFound               = repository.ErrNotFound
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrForbidden              = errors.New("permission denied")
	ErrAlreadyExists          = errors.New("already exists")
	ErrAlreadyClaimed         = errors.New("compensation already claimed")
	ErrNothingToClaim         = errors.New("no unclaimed compensation")
	ErrNotVerified            = errors.New("email not verified")
	ErrAlreadyVerified        = errors.New("email already verified")
	ErrInvalidCode            = errors.New("invalid or expired verification code")
	ErrInvalidVerificationKey = errors.New("invalid verification key")
	ErrAlreadyBound           = errors.New("game role already bound")
	ErrGameRoleTaken          = errors.New("game role bound to another account")
	ErrNotBound               = errors.New("game role not bound")
	ErrQQTaken                = errors.New("qq account bound to another user")
	ErrLastAdmin              = errors.New("cannot delete the last administrator")
)
