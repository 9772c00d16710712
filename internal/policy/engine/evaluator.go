package engine

import (
	"context"

	userdomain "account-service/internal/user/domain"
)

// ResetDecision holds the outcome of password reset policy evaluation.
type ResetDecision struct {
	// InvalidatePriorCodes deletes a user's outstanding codes before a new one is issued.
	InvalidatePriorCodes bool
}

// DefaultResetDecision keeps earlier codes valid alongside a new one.
var DefaultResetDecision = ResetDecision{InvalidatePriorCodes: false}

// ResetEvaluator evaluates the password reset policy for a user and delivery channel.
type ResetEvaluator interface {
	EvaluateReset(ctx context.Context, user *userdomain.User, channel string) (ResetDecision, error)
}
