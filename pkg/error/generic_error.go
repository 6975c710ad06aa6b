package error

import (
	"errors"
	"net/http"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
)

// GenericError is an error that knows how it should be rendered over HTTP.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}

type ValidationError string

func (e ValidationError) Error() string   { return string(e) }
func (e ValidationError) ErrCode() string { return "VALIDATION_ERROR" }
func (e ValidationError) StatusCode() int { return http.StatusBadRequest }

type InternalServerError string

func (e InternalServerError) Error() string   { return string(e) }
func (e InternalServerError) ErrCode() string { return "INTERNAL_SERVER_ERROR" }
func (e InternalServerError) StatusCode() int { return http.StatusInternalServerError }

// ConflictError reports a request that lost against concurrent state or
// could not find a free slot.
type ConflictError string

func (e ConflictError) Error() string   { return string(e) }
func (e ConflictError) ErrCode() string { return "CONFLICT_ERROR" }
func (e ConflictError) StatusCode() int { return http.StatusConflict }

type UnavailableError string

func (e UnavailableError) Error() string   { return string(e) }
func (e UnavailableError) ErrCode() string { return "SERVICE_UNAVAILABLE" }
func (e UnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// FromDomain maps a scheduling error to its transport error. Errors that are
// already GenericError pass through unchanged.
func FromDomain(err error) GenericError {
	if err == nil {
		return nil
	}
	var generic GenericError
	if errors.As(err, &generic) {
		return generic
	}
	switch {
	case errors.Is(err, domain.ErrRuleNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, domain.ErrInvalidRule),
		errors.Is(err, domain.ErrInvalidStrategy),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrContentMissing):
		return ValidationError(err.Error())
	case errors.Is(err, domain.ErrConflictUnresolved),
		errors.Is(err, domain.ErrClaimLost):
		return ConflictError(err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		return UnavailableError(err.Error())
	}
	return InternalServerError(err.Error())
}

type WebhookError string

func (e WebhookError) Error() string   { return string(e) }
func (e WebhookError) ErrCode() string { return "WEBHOOK_ERROR" }
func (e WebhookError) StatusCode() int { return http.StatusBadGateway }
