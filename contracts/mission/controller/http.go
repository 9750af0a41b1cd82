package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.missionstake.io/stake"
	"go.missionstake.io/stake/contracts/mission"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/txn"
	"go.missionstake.io/stake/proxy"
	"golang.org/x/xerrors"
)

const maxBodySize = 1 << 16

// API exposes the missions and the reward balances over HTTP. Every write
// is a transaction signed by the subject of the bearer token.
//
// - implements proxy.Router
type API struct {
	client client
	auth   bearer
	logger zerolog.Logger
}

func newAPI(c client, auth bearer) *API {
	return &API{
		client: c,
		auth:   auth,
		logger: stake.Logger.With().Str("controller", "mission").Logger(),
	}
}

// Routes implements proxy.Router.
func (a *API) Routes(p proxy.Proxy) {
	p.RegisterRoute(http.MethodPost, "/missions", a.create)
	p.RegisterRoute(http.MethodGet, "/missions", a.list)
	p.RegisterRoute(http.MethodGet, "/missions/count", a.count)
	p.RegisterRoute(http.MethodGet, "/missions/{id}", a.get)
	p.RegisterRoute(http.MethodPost, "/missions/{id}/accept", a.accept)
	p.RegisterRoute(http.MethodPost, "/missions/{id}/complete", a.complete)
	p.RegisterRoute(http.MethodPost, "/missions/{id}/verify", a.verify)
	p.RegisterRoute(http.MethodPost, "/missions/{id}/cancel", a.cancel)
	p.RegisterRoute(http.MethodPost, "/missions/{id}/settle", a.settle)
	p.RegisterRoute(http.MethodGet, "/payouts/pending", a.pending)
	p.RegisterRoute(http.MethodGet, "/users/{address}/missions", a.userMissions)
	p.RegisterRoute(http.MethodGet, "/rewards/{address}", a.balance)
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reward      uint64 `json:"reward"`
	Deadline    int64  `json:"deadline"`
}

type completeRequest struct {
	Proof string `json:"proof"`
}

type verifyRequest struct {
	Approved *bool `json:"approved"`
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	draft := mission.Draft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Reward:      req.Reward,
		Deadline:    req.Deadline,
	}

	id, err := a.client.create(r.Context(), caller, draft)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.respondMission(w, http.StatusCreated, id)
}

func (a *API) accept(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, mission.CmdAccept, nil)
}

func (a *API) complete(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, mission.CmdComplete, func(r *http.Request) ([]txn.Arg, bool) {
		var req completeRequest
		if !decodeBody(w, r, &req) {
			return nil, false
		}

		return []txn.Arg{arg(mission.ProofArg, req.Proof)}, true
	})
}

func (a *API) verify(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, mission.CmdVerify, func(r *http.Request) ([]txn.Arg, bool) {
		var req verifyRequest
		if !decodeBody(w, r, &req) {
			return nil, false
		}

		if req.Approved == nil {
			respondError(w, http.StatusBadRequest, "invalid_body", "approved is required")
			return nil, false
		}

		return []txn.Arg{arg(mission.ApprovedArg, strconv.FormatBool(*req.Approved))}, true
	})
}

func (a *API) cancel(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, mission.CmdCancel, nil)
}

func (a *API) settle(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, mission.CmdSettle, nil)
}

// transition authenticates the caller, reads the extra arguments from the
// body when needed, then submits the command signed by the caller.
func (a *API) transition(w http.ResponseWriter, r *http.Request, cmd mission.Command,
	body func(*http.Request) ([]txn.Arg, bool)) {

	caller, ok := a.caller(w, r)
	if !ok {
		return
	}

	id, ok := missionID(w, r)
	if !ok {
		return
	}

	var args []txn.Arg
	if body != nil {
		args, ok = body(r)
		if !ok {
			return
		}
	}

	reason, err := a.client.transition(r.Context(), cmd, id, caller, args...)
	if err != nil {
		a.fail(w, err)
		return
	}

	if !reason.Ok() {
		respondError(w, statusOf(reason), string(reason), "transition refused")
		return
	}

	a.respondMission(w, http.StatusOK, id)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	a.respondMission(w, http.StatusOK, id)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("status")

	var status types.Status
	if filter != "" {
		var err error
		status, err = types.ParseStatus(filter)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
	}

	missions, err := a.client.list()
	if err != nil {
		a.fail(w, err)
		return
	}

	views := []missionView{}
	for _, m := range missions {
		if filter == "" || m.Status == status {
			views = append(views, newMissionView(m))
		}
	}

	respondJSON(w, http.StatusOK, missionsResponse{Missions: views})
}

func (a *API) count(w http.ResponseWriter, r *http.Request) {
	count, err := a.client.count()
	if err != nil {
		a.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, countResponse{Count: count})
}

func (a *API) pending(w http.ResponseWriter, r *http.Request) {
	ids, err := a.client.pendingPayouts()
	if err != nil {
		a.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

func (a *API) userMissions(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}

	ids, err := a.client.userIndex(addr)
	if err != nil {
		a.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

func (a *API) balance(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}

	balance, err := a.client.balance(addr)
	if err != nil {
		a.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{Address: addr.String(), Balance: balance})
}

func (a *API) respondMission(w http.ResponseWriter, status int, id uint64) {
	m, err := a.client.get(id)
	if err != nil {
		a.fail(w, err)
		return
	}

	if m == nil {
		respondError(w, http.StatusNotFound, string(mission.ReasonNotFound), "mission not found")
		return
	}

	respondJSON(w, status, newMissionView(*m))
}

func (a *API) caller(w http.ResponseWriter, r *http.Request) (access.Address, bool) {
	addr, err := a.auth.authenticate(r)
	if err != nil {
		a.logger.Debug().Err(err).Msg("request refused")
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return addr, false
	}

	return addr, true
}

// fail maps the error of a transaction or a read to a response.
func (a *API) fail(w http.ResponseWriter, err error) {
	switch {
	case xerrors.Is(err, mission.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case xerrors.Is(err, mission.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "unauthorized", err.Error())
	case xerrors.Is(err, mission.ErrNotDeployed):
		respondError(w, http.StatusConflict, "not_deployed", "registry not deployed")
	default:
		a.logger.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// statusOf returns the HTTP status of a refused transition.
func statusOf(reason mission.Reason) int {
	switch reason {
	case mission.ReasonNotFound:
		return http.StatusNotFound
	case mission.ReasonNotAuthenticated, mission.ReasonNotCreator, mission.ReasonNotAssignee:
		return http.StatusForbidden
	case mission.ReasonInvalidProof:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func missionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "mission id must be a positive integer")
		return 0, false
	}

	return id, true
}

func addressParam(w http.ResponseWriter, r *http.Request) (access.Address, bool) {
	addr, err := access.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return addr, false
	}

	return addr, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}

	return true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		stake.Logger.Warn().Err(err).Msg("failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
