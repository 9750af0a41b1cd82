package controller

import (
	"go.missionstake.io/stake/contracts/mission/types"
)

// missionView is the JSON representation of a mission in the responses.
type missionView struct {
	ID            uint64 `json:"id"`
	Creator       string `json:"creator"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Reward        uint64 `json:"reward"`
	Deadline      int64  `json:"deadline"`
	Status        string `json:"status"`
	Assignee      string `json:"assignee,omitempty"`
	Proof         string `json:"proof,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	CompletedAt   int64  `json:"completed_at,omitempty"`
	PayoutPending bool   `json:"payout_pending"`
}

func newMissionView(m types.Mission) missionView {
	view := missionView{
		ID:            m.ID,
		Creator:       m.Creator.String(),
		Title:         m.Title,
		Description:   m.Description,
		Category:      m.Category,
		Reward:        m.Reward,
		Deadline:      m.Deadline,
		Status:        m.Status.String(),
		Proof:         m.Proof,
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
		PayoutPending: m.PayoutPending,
	}

	if !m.Assignee.IsZero() {
		view.Assignee = m.Assignee.String()
	}

	return view
}

type missionsResponse struct {
	Missions []missionView `json:"missions"`
}

type countResponse struct {
	Count uint64 `json:"count"`
}

type idsResponse struct {
	IDs []uint64 `json:"ids"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
