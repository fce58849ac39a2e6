package mailer

import (
	"fmt"

	derrors "portal-mailer/pkg/domain-errors"
)

// IsInteresting reports whether the event warrants an email. Approval events
// only count when added; verification events count regardless of action.
func IsInteresting(event Event) bool {
	if event.Entity == "verification_lostpassword" ||
		event.Entity == "verification_email" {
		return true
	}
	if event.Entity == "approval" && event.Action == "add" {
		return true
	}
	return false
}

// EmailData maps an interesting event to its email intent. Calling it with
// an event IsInteresting rejected is a programming error, not a runtime
// condition, and surfaces as an invariant violation.
func EmailData(event Event) (Intent, error) {
	if event.Entity == "verification_email" {
		return Intent{
			Template:  "verify_email",
			Subject:   "Email validation",
			Recipient: RecipientUser,
		}, nil
	}
	if event.Entity == "verification_lostpassword" {
		return Intent{
			Template:  "lost_password",
			Subject:   "Lost Password Recovery",
			Recipient: RecipientUser,
		}, nil
	}
	if event.Entity == "approval" && event.Action == "add" {
		return Intent{
			Template:  "pending_approval",
			Subject:   "Pending Approval",
			Recipient: RecipientAdmin,
		}, nil
	}
	return Intent{}, derrors.New(derrors.CodeInvariantViolation,
		fmt.Sprintf("event meta information invalid: entity=%s action=%s", event.Entity, event.Action))
}
