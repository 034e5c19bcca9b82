package commands

import (
	"context"
	"fmt"
)

// handlePing reports the gateway heartbeat latency
func (h *Handler) handlePing(ctx context.Context, inv Invocation) error {
	if h.deps.Latency == nil {
		return h.reply(ctx, inv, "Pong!")
	}
	latency := h.deps.Latency.HeartbeatLatency()
	return h.reply(ctx, inv, fmt.Sprintf("Pong! Gateway latency: %dms", latency.Milliseconds()))
}
