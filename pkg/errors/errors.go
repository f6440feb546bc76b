package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMITED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Commerce-domain codes surfaced by the fulfillment and settlement flows.
	CodeNoPricing              Code = "NO_PRICING_AVAILABLE"
	CodeBelowMinimumQuantity   Code = "BELOW_MINIMUM_QUANTITY"
	CodeExceedsMaximumQuantity Code = "EXCEEDS_MAXIMUM_QUANTITY"
	CodeInsufficientStock      Code = "INSUFFICIENT_STOCK"
	CodeEmptyCart              Code = "EMPTY_CART"
	CodeInvalidTransition      Code = "INVALID_TRANSITION"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeAlreadyClaimed         Code = "ALREADY_CLAIMED"
	CodeOrderAlreadySettled    Code = "ORDER_ALREADY_SETTLED"
	CodeOrderNotEligible       Code = "ORDER_NOT_ELIGIBLE"
	CodePaymentGateway         Code = "PAYMENT_GATEWAY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		Retryable:      true,
		PublicMessage:  "too many requests",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeNoPricing: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "no pricing available for buyer",
		DetailsAllowed: true,
	},
	CodeBelowMinimumQuantity: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "quantity below minimum",
		DetailsAllowed: true,
	},
	CodeExceedsMaximumQuantity: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "quantity exceeds maximum",
		DetailsAllowed: true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
	CodeEmptyCart: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "cart contains no items",
	},
	CodeInvalidTransition: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "invalid order status transition",
		DetailsAllowed: true,
	},
	CodeConcurrentModification: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "resource changed concurrently, retry with fresh data",
		DetailsAllowed: true,
	},
	CodeAlreadyClaimed: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "order already claimed by another partner",
		DetailsAllowed: true,
	},
	CodeOrderAlreadySettled: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "order already belongs to a settlement",
		DetailsAllowed: true,
	},
	CodeOrderNotEligible: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "order not eligible for settlement",
		DetailsAllowed: true,
	},
	CodePaymentGateway: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      true,
		PublicMessage:  "payment gateway unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
