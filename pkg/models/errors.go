package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

var ErrBadRequest = errors.New("bad request")

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (e *BadRequestError) Unwrap() error {
	return ErrBadRequest
}

func NewBadRequestError(message string) error {
	return &BadRequestError{Message: message}
}

var ErrUnauthorized = errors.New("unauthorized")

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

func NewUnauthorizedError(message string) error {
	return &UnauthorizedError{Message: message}
}

// ErrForbidden marks requests from an authenticated caller who lacks the
// required privileges.
var ErrForbidden = errors.New("forbidden")

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Message)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func NewForbiddenError(message string) error {
	return &ForbiddenError{Message: message}
}

// ErrValidation covers malformed or empty user input.
var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// ErrDocumentRead covers unreadable or unsupported corpus documents.
var ErrDocumentRead = errors.New("document read failed")

type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("document read failed for %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return ErrDocumentRead
}

func NewDocumentReadError(path string, err error) error {
	return &DocumentReadError{Path: path, Err: err}
}

// ErrEmbeddingService covers failures of the embeddings provider. A batch
// embedding call fails atomically; there are no partial results.
var ErrEmbeddingService = errors.New("embedding service failed")

type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service failed: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return ErrEmbeddingService
}

func NewEmbeddingServiceError(err error) error {
	return &EmbeddingServiceError{Err: err}
}

// ErrGenerationService covers failures of the chat completion provider.
var ErrGenerationService = errors.New("generation service failed")

type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service failed: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error {
	return ErrGenerationService
}

func NewGenerationServiceError(err error) error {
	return &GenerationServiceError{Err: err}
}

var ErrLockAcquisitionFailed = errors.New("failed to acquire advisory lock")

type AdvisoryLockError struct {
	Err error
}

func (e *AdvisoryLockError) Error() string {
	return fmt.Sprintf("failed to acquire advisory lock: %v", e.Err)
}

func (e *AdvisoryLockError) Unwrap() error {
	return ErrLockAcquisitionFailed
}

func NewAdvisoryLockError(err error) error {
	return &AdvisoryLockError{Err: err}
}
