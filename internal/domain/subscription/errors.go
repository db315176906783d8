package subscription

import "errors"

// Domain errors for subscriptions.
var (
	ErrUserIDRequired         = errors.New("user id is required")
	ErrSubscriptionIDRequired = errors.New("subscription id is required")
)
