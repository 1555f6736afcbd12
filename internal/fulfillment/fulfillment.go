package fulfillment

import (
	"github.com/isoko-rw/marketplace-backend/internal/apperr"
)

var (
	ErrNotOwned      = apperr.New(apperr.KindNotFound, "order item not found for this supplier")
	ErrBadTransition = apperr.New(apperr.KindInvalidInput, "illegal fulfillment transition")
)
