package jwtauth

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/jwtauth/internal/audit"
)

// AuditEvent is one record of a token issuance, rejection, revocation or refresh.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel; read them with Events.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink logs events through a *slog.Logger.
type SlogSink = audit.SlogSink

// Audit event types.
const (
	AuditEventTokenIssued    = "token_issued"
	AuditEventTokenRejected  = "token_rejected"
	AuditEventTokenRevoked   = "token_revoked"
	AuditEventTokenRefreshed = "token_refreshed"
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return audit.NewSlogSink(logger)
}
