package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "portal-mailer/pkg/domain-errors"
)

func TestIsInteresting(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"email verification", Event{Entity: "verification_email", Action: "add"}, true},
		{"email verification ignores action", Event{Entity: "verification_email", Action: "delete"}, true},
		{"lost password", Event{Entity: "verification_lostpassword"}, true},
		{"approval added", Event{Entity: "approval", Action: "add"}, true},
		{"approval deleted", Event{Entity: "approval", Action: "delete"}, false},
		{"unrelated entity", Event{Entity: "application", Action: "add"}, false},
		{"empty event", Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInteresting(tt.event))
		})
	}
}

func TestEmailData(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  Intent
	}{
		{
			"email verification",
			Event{Entity: "verification_email", Action: "add"},
			Intent{Template: "verify_email", Subject: "Email validation", Recipient: RecipientUser},
		},
		{
			"lost password",
			Event{Entity: "verification_lostpassword", Action: "update"},
			Intent{Template: "lost_password", Subject: "Lost Password Recovery", Recipient: RecipientUser},
		},
		{
			"pending approval",
			Event{Entity: "approval", Action: "add"},
			Intent{Template: "pending_approval", Subject: "Pending Approval", Recipient: RecipientAdmin},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Extra fields on the event must not influence the intent.
			tt.event.ID = "evt-1"
			tt.event.Data = EventData{UserID: "u1", ID: "d1", Link: "https://example.com/{{id}}"}

			intent, err := EmailData(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent)
		})
	}

	t.Run("event outside the decision table is a contract violation", func(t *testing.T) {
		_, err := EmailData(Event{Entity: "approval", Action: "delete"})
		require.Error(t, err)
		assert.True(t, derrors.Is(err, derrors.CodeInvariantViolation))
		assert.Contains(t, err.Error(), "event meta information invalid")
	})
}
