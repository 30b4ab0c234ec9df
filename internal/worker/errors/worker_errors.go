package workererrors

import (
	"go-idcard/internal/shared/apperror"
	"net/http"
)

var (
	ErrValidation = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid worker data",
		http.StatusBadRequest,
	)
	ErrDuplicateAadhar = apperror.New(
		apperror.CodeConflict,
		"A worker with this Aadhar number already exists",
		http.StatusConflict,
	)
	ErrWorkerNotFound = apperror.New(
		apperror.CodeNotFound,
		"Worker not found",
		http.StatusNotFound,
	)
	ErrStore = apperror.New(
		apperror.CodeInternalError,
		"Failed to access worker records",
		http.StatusInternalServerError,
	)
	ErrUnknownField = apperror.New(
		apperror.CodeInvalidInput,
		"Field cannot be updated",
		http.StatusBadRequest,
	)
	ErrEmptyUpdate = apperror.New(
		apperror.CodeInvalidInput,
		"No fields to update",
		http.StatusBadRequest,
	)
	ErrInvalidSort = apperror.New(
		apperror.CodeInvalidInput,
		"Unsupported sort field",
		http.StatusBadRequest,
	)
	ErrInvalidWorkerID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid worker ID",
		http.StatusBadRequest,
	)
	ErrFileTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"Uploaded file exceeds the size limit",
		http.StatusBadRequest,
	)
	ErrUnsupportedFile = apperror.New(
		apperror.CodeInvalidInput,
		"File upload only supports jpg, jpeg and png",
		http.StatusBadRequest,
	)
)
