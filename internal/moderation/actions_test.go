package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantAction string
		wantSeqID  int64
		wantOK     bool
		wantErr    bool
	}{
		{"ApproveNormal", "approve-normal:42", ActionApproveNormal, 42, true, false},
		{"ApproveForward", "approve-forward:7", ActionApproveForward, 7, true, false},
		{"Reject", "reject:1", ActionReject, 1, true, false},
		{"Reply", "reply:99", ActionReply, 99, true, false},
		{"View", "view:3", ActionView, 3, true, false},
		{"Next", "next:3", ActionNext, 3, true, false},
		{"UnknownAction", "promote:1", "", 0, false, false},
		{"NoSeparator", "approve-normal", "", 0, false, false},
		{"EmptyData", "", "", 0, false, false},
		{"MalformedID", "reject:abc", ActionReject, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, seqID, ok, err := parseAction(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantSeqID, seqID)
		})
	}
}

func TestActionDataRoundTrip(t *testing.T) {
	data := actionData(ActionApproveForward, 123)
	assert.Equal(t, "approve-forward:123", data)

	action, seqID, ok, err := parseAction(data)
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, ActionApproveForward, action)
	assert.Equal(t, int64(123), seqID)
}
