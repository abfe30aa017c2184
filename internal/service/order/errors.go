package order

import "marketplace/internal/domain"

var (
	ErrUnknownStatus = domain.Invalid("status must be pending or fulfilled")
	ErrUnknownSort   = domain.Invalid("sort must be date or amount")
	ErrDateRange     = domain.Invalid("from must not be after to")
)
