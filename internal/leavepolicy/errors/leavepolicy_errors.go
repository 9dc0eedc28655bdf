package leavepolicyerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidTargetID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid target id",
		http.StatusBadRequest,
	)
	ErrInvalidPolicyLevel = apperror.New(
		apperror.CodeInvalidInput,
		"policy_level must be one of EMPLOYEE, TEAM, DEPARTMENT, ORGANIZATION",
		http.StatusBadRequest,
	)
	ErrInvalidQuota = apperror.New(
		apperror.CodeInvalidInput,
		"leave quotas must be non-negative",
		http.StatusBadRequest,
	)
	ErrPolicyNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrDuplicateActivePolicy = apperror.New(
		apperror.CodeConflict,
		"an active policy already exists for this level and target",
		http.StatusConflict,
	)
)
