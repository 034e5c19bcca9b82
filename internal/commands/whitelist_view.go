package commands

import (
	"context"
	"strings"
)

// handleListAllowed handles listallowed
func (h *Handler) handleListAllowed(ctx context.Context, inv Invocation) error {
	ids := h.deps.AllowList.List()
	if len(ids) == 0 {
		return h.reply(ctx, inv, "No users in allowed list.")
	}
	return h.reply(ctx, inv, "Allowed users:\n"+strings.Join(ids, "\n"))
}
