package mission

import (
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
)

// Reason explains why a transition was refused. The empty reason means the
// transition was applied.
type Reason string

const (
	// ReasonNone is the reason of an applied transition.
	ReasonNone Reason = ""

	// ReasonNotAuthenticated is returned when the acting address did not sign
	// the invocation.
	ReasonNotAuthenticated Reason = "not_authenticated"

	// ReasonNotFound is returned when the mission does not exist.
	ReasonNotFound Reason = "not_found"

	// ReasonNotCreator is returned when the acting address is not the creator
	// of the mission.
	ReasonNotCreator Reason = "not_creator"

	// ReasonNotAssignee is returned when the acting address is not the
	// assignee of the mission.
	ReasonNotAssignee Reason = "not_assignee"

	// ReasonNotPending is returned when the mission is not pending.
	ReasonNotPending Reason = "not_pending"

	// ReasonNotInProgress is returned when the mission is not in progress.
	ReasonNotInProgress Reason = "not_in_progress"

	// ReasonNotCompleted is returned when the mission is not completed.
	ReasonNotCompleted Reason = "not_completed"

	// ReasonInvalidProof is returned when the proof is too long.
	ReasonInvalidProof Reason = "invalid_proof"

	// ReasonNoPendingPayout is returned when there is no payout to settle.
	ReasonNoPendingPayout Reason = "no_pending_payout"

	// ReasonPayoutFailed is returned when the distributor refused to settle a
	// pending payout.
	ReasonPayoutFailed Reason = "payout_failed"
)

// Ok returns true when the transition was applied.
func (r Reason) Ok() bool {
	return r == ReasonNone
}

// String implements fmt.Stringer.
func (r Reason) String() string {
	if r == ReasonNone {
		return "ok"
	}

	return string(r)
}

// applyAccept moves a pending mission in progress with the user as assignee.
func applyAccept(m *types.Mission, user access.Address) Reason {
	if m.Status != types.StatusPending {
		return ReasonNotPending
	}

	m.Status = types.StatusInProgress
	m.Assignee = user

	return ReasonNone
}

// applyComplete attaches the proof of the assignee and stamps the completion
// time.
func applyComplete(m *types.Mission, user access.Address, proof string, now int64) Reason {
	if m.Assignee != user {
		return ReasonNotAssignee
	}

	if m.Status != types.StatusInProgress {
		return ReasonNotInProgress
	}

	if types.ValidateProof(proof) != nil {
		return ReasonInvalidProof
	}

	m.Status = types.StatusCompleted
	m.Proof = proof
	m.CompletedAt = now

	return ReasonNone
}

// applyVerify settles the decision of the creator. An approval marks the
// payout as pending, a rejection returns the mission to its assignee.
func applyVerify(m *types.Mission, verifier access.Address, approved bool) Reason {
	if m.Creator != verifier {
		return ReasonNotCreator
	}

	if m.Status != types.StatusCompleted {
		return ReasonNotCompleted
	}

	if approved {
		m.Status = types.StatusVerified
		m.PayoutPending = true
	} else {
		m.Status = types.StatusInProgress
	}

	return ReasonNone
}

// applyCancel withdraws a mission nobody accepted.
func applyCancel(m *types.Mission, creator access.Address) Reason {
	if m.Creator != creator {
		return ReasonNotCreator
	}

	if m.Status != types.StatusPending {
		return ReasonNotPending
	}

	m.Status = types.StatusCancelled

	return ReasonNone
}

// applySettle clears the pending payout once the transfer is done.
func applySettle(m *types.Mission) Reason {
	if !m.PayoutPending {
		return ReasonNoPendingPayout
	}

	m.PayoutPending = false

	return ReasonNone
}
