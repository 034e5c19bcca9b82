package commands

import (
	"context"
	"fmt"
	"strings"
)

const statusTimeLayout = "15:04:05"

func (h *Handler) handleSecurityStatus(ctx context.Context, inv Invocation) error {
	return h.reply(ctx, inv, h.formatSecurityStatus())
}

func (h *Handler) formatSecurityStatus() string {
	st := h.deps.Engine.Status()

	var b strings.Builder
	b.WriteString("Security Status:\nLocked Users:\n")
	if len(st.Restricted) == 0 {
		b.WriteString("None\n")
	}
	for _, r := range st.Restricted {
		fmt.Fprintf(&b, "User %s: Locked until %s (Level %d)\n", r.UserID, r.Until.Format(statusTimeLayout), r.Level)
	}

	b.WriteString("\nFailed Attempts:\n")
	if len(st.Attempts) == 0 {
		b.WriteString("None\n")
	}
	for _, a := range st.Attempts {
		fmt.Fprintf(&b, "User %s: %d attempts\n", a.UserID, a.Count)
	}
	return b.String()
}
