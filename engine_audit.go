package jwtauth

import (
	"context"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/internal/audit"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	c *claims.Set,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		Success:   success,
		Error:     ErrorCode(err),
		Metadata:  metadata,
	}
	if c != nil {
		event.Subject = c.Subject()
		event.TokenID = c.ID()
	}

	e.audit.Emit(ctx, event)
}
