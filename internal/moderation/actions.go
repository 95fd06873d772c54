package moderation

import (
	"fmt"
	"strconv"
	"strings"
)

// Admin action namespace carried in callback data as "<action>:<submission id>".
const (
	ActionApproveNormal  = "approve-normal"
	ActionApproveForward = "approve-forward"
	ActionReject         = "reject"
	ActionReply          = "reply"
	ActionView           = "view"
	ActionNext           = "next"
)

var knownActions = map[string]bool{
	ActionApproveNormal:  true,
	ActionApproveForward: true,
	ActionReject:         true,
	ActionReply:          true,
	ActionView:           true,
	ActionNext:           true,
}

// parseAction splits callback data into an action and a submission id.
// ok is false when the data does not belong to this namespace at all;
// err is set when the namespace matches but the id is malformed.
func parseAction(data string) (action string, seqID int64, ok bool, err error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 || !knownActions[parts[0]] {
		return "", 0, false, nil
	}
	seqID, parseErr := strconv.ParseInt(parts[1], 10, 64)
	if parseErr != nil {
		return parts[0], 0, true, fmt.Errorf("invalid submission id in callback data %q: %w", data, parseErr)
	}
	return parts[0], seqID, true, nil
}

// actionData builds the callback data string for an action on a submission.
func actionData(action string, seqID int64) string {
	return fmt.Sprintf("%s:%d", action, seqID)
}
