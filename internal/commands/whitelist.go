package commands

import (
	"context"
	"fmt"

	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/pkg/util"
)

// handleAllow handles allow <userId>
func (h *Handler) handleAllow(ctx context.Context, inv Invocation) error {
	if len(inv.Args) != 1 {
		return h.usage(ctx, inv)
	}
	userID, err := util.ParseUserID(inv.Args[0])
	if err != nil {
		return h.usage(ctx, inv)
	}

	added, err := h.deps.AllowList.Add(ctx, userID, inv.AuthorID)
	if err != nil {
		h.deps.Audit.Log(ctx, logging.EventError, inv.AuthorID, fmt.Sprintf("Failed to add user %s to allowed list: %v", userID, err))
		return h.reply(ctx, inv, "Failed to update the allowed list.")
	}
	if !added {
		return h.reply(ctx, inv, "User is already in the allowed list.")
	}

	if err := h.reply(ctx, inv, fmt.Sprintf("User %s added to allowed list.", userID)); err != nil {
		logging.Warn("%v", err)
	}
	h.deps.Audit.Log(ctx, logging.EventUserAllowed, inv.AuthorID, fmt.Sprintf("Added user %s to allowed list", userID))
	return nil
}

// handleRemove handles remove <userId>
func (h *Handler) handleRemove(ctx context.Context, inv Invocation) error {
	if len(inv.Args) != 1 {
		return h.usage(ctx, inv)
	}
	userID, err := util.ParseUserID(inv.Args[0])
	if err != nil {
		return h.usage(ctx, inv)
	}

	removed, err := h.deps.AllowList.Remove(ctx, userID)
	if err != nil {
		h.deps.Audit.Log(ctx, logging.EventError, inv.AuthorID, fmt.Sprintf("Failed to remove user %s from allowed list: %v", userID, err))
		return h.reply(ctx, inv, "Failed to update the allowed list.")
	}
	if !removed {
		return h.reply(ctx, inv, "User is not in the allowed list.")
	}

	if err := h.reply(ctx, inv, fmt.Sprintf("User %s removed from allowed list.", userID)); err != nil {
		logging.Warn("%v", err)
	}
	h.deps.Audit.Log(ctx, logging.EventUserRemoved, inv.AuthorID, fmt.Sprintf("Removed user %s from allowed list", userID))
	return nil
}
