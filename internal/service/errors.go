// Package service 包含了应用的业务逻辑层。
package service

import "errors"

var (
	ErrUserExists          = errors.New("用户名已存在")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrQANotFound          = errors.New("qa pair not found")
	ErrEmptyQuestion       = errors.New("question must not be empty")
	ErrInterviewNotFound   = errors.New("interview not found")
	ErrInvalidInterview    = errors.New("interview title and date are required")
	ErrExportUnavailable   = errors.New("history export is not configured")
	ErrSearchUnavailable   = errors.New("chat search is not configured")
)
