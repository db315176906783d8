// Package conversation forwards prompts to the generation provider behind the access gate.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pixelgate/server/internal/domain/apilimit"
	"github.com/pixelgate/server/internal/port/outbound"
	apperrors "github.com/pixelgate/server/internal/shared/errors"
	"github.com/pixelgate/server/internal/utils/metrics"
	"go.uber.org/zap"
)

// Gate is the part of the access gate used by the generation flow.
type Gate interface {
	Reserve(ctx context.Context, userID string) (*apilimit.Reservation, error)
}

// Recorder receives provider call outcomes.
type Recorder interface {
	RecordGeneration(provider, outcome string, duration time.Duration)
}

// Domain runs gated generation requests.
type Domain struct {
	gate     Gate
	provider outbound.GenerationProviderPort
	recorder Recorder
	logger   *zap.Logger
}

// NewConversationDomain creates a new generation flow. recorder may be nil.
func NewConversationDomain(
	gate Gate,
	provider outbound.GenerationProviderPort,
	recorder Recorder,
	logger *zap.Logger,
) *Domain {
	return &Domain{
		gate:     gate,
		provider: provider,
		recorder: recorder,
		logger:   logger,
	}
}

// Generate authenticates, validates and authorizes the request, then calls
// the provider once and returns its output unchanged. A failed provider
// call gives its reserved unit back.
func (d *Domain) Generate(ctx context.Context, userID string, prompt json.RawMessage) (json.RawMessage, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	}
	if !PromptPresent(prompt) {
		return nil, apperrors.BadRequest(MsgMessagesRequired)
	}

	reservation, err := d.gate.Reserve(ctx, userID)
	switch {
	case errors.Is(err, apilimit.ErrLimitReached):
		return nil, apperrors.QuotaExceeded(MsgFreeTrialExpired)
	case errors.Is(err, apilimit.ErrInvalidUserID):
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	case err != nil:
		d.logger.Error(LogTag+" access gate",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, apperrors.Internal(MsgInternal, err)
	}

	start := time.Now()
	output, err := d.provider.Run(ctx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		d.record(metrics.OutcomeFailure, elapsed)
		d.logger.Error(LogTag,
			zap.String("user_id", userID),
			zap.String("provider", d.provider.Name()),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		// The request context may already be done; giving the unit back must not depend on it.
		if relErr := reservation.Release(context.WithoutCancel(ctx)); relErr != nil {
			d.logger.Error(LogTag+" release reservation",
				zap.String("user_id", userID),
				zap.Error(relErr),
			)
		}
		return nil, apperrors.Internal(MsgInternal, err)
	}

	d.record(metrics.OutcomeSuccess, elapsed)
	d.logger.Debug("generation completed",
		zap.String("user_id", userID),
		zap.String("provider", d.provider.Name()),
		zap.Duration("duration", elapsed),
		zap.Bool("counted", reservation.Counted()),
	)
	return output, nil
}

func (d *Domain) record(outcome string, elapsed time.Duration) {
	if d.recorder != nil {
		d.recorder.RecordGeneration(d.provider.Name(), outcome, elapsed)
	}
}
