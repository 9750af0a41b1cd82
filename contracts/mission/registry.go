package mission

import (
	"encoding/binary"
	"strconv"
	"sync"
	"time"

	"go.missionstake.io/stake"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/contracts/reward"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/store/mem"
	"go.missionstake.io/stake/serde"
	"go.missionstake.io/stake/serde/json"
	"golang.org/x/xerrors"
)

const missionPrefix = "mission:"

var counterKey = []byte("mission_count")

// errRefused drops the staged writes of a transition that is not applied.
var errRefused = xerrors.New("transition refused")

var (
	// ErrUnauthorized is returned when the creator of a new mission is not the
	// caller.
	ErrUnauthorized = xerrors.New("unauthorized")

	// ErrInvalidInput is returned when the content of a new mission is out of
	// bounds.
	ErrInvalidInput = xerrors.New("invalid input")

	// ErrNotDeployed is returned when a mission is created before the
	// registry is deployed.
	ErrNotDeployed = xerrors.New("registry not deployed")
)

// Env is the context of one invocation of the registry.
type Env struct {
	// Snapshot is the state the invocation reads and writes.
	Snapshot store.Snapshot

	// Auth tells which addresses signed the invocation.
	Auth access.Authenticator

	// Timestamp is the ledger time of the invocation.
	Timestamp time.Time
}

func (env Env) authenticated(addr access.Address) bool {
	return env.Auth != nil && !addr.IsZero() && env.Auth.IsAuthenticated(addr)
}

// Draft is the content of a new mission.
type Draft struct {
	Title       string
	Description string
	Category    string
	Reward      uint64
	Deadline    int64
}

// RegistryOption is the type of option to set some fields of a registry.
type RegistryOption func(*Registry)

// WithContext sets the serialization context of the records. The default is
// the JSON context.
func WithContext(ctx serde.Context) RegistryOption {
	return func(r *Registry) {
		r.context = ctx
		r.index.context = ctx
	}
}

// Registry allocates the mission IDs, runs the transitions and answers the
// queries. The transitions of one mission are serialized, as well as the
// updates of the index of one address.
type Registry struct {
	context     serde.Context
	factory     types.MessageFactory
	index       userIndex
	distributor reward.Distributor

	counter  sync.Mutex
	missions *keyedMutex
	users    *keyedMutex
}

// NewRegistry returns a registry paying the rewards with the distributor.
func NewRegistry(distributor reward.Distributor, opts ...RegistryOption) *Registry {
	ctx := json.NewContext()

	r := &Registry{
		context:     ctx,
		factory:     types.MessageFactory{},
		index:       userIndex{context: ctx},
		distributor: distributor,
		missions:    newKeyedMutex(),
		users:       newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Deploy initializes the mission counter. It returns false when the registry
// was already deployed, in which case the counter is left untouched.
func (r *Registry) Deploy(snap store.Snapshot) (bool, error) {
	r.counter.Lock()
	defer r.counter.Unlock()

	_, found, err := r.readCounter(snap)
	if err != nil {
		return false, xerrors.Errorf("failed to deploy: %v", err)
	}

	if found {
		return false, nil
	}

	err = r.writeCounter(snap, 0)
	if err != nil {
		return false, xerrors.Errorf("failed to deploy: %v", err)
	}

	stake.Logger.Info().Str("contract", "mission").Msg("registry deployed")

	return true, nil
}

// Create stores a new pending mission and returns its ID. The creator must be
// authenticated and the content within bounds, otherwise the call is aborted.
func (r *Registry) Create(env Env, creator access.Address, draft Draft) (uint64, error) {
	id, err := r.create(env, creator, draft)
	if err != nil {
		transitions.WithLabelValues(string(CmdCreate), "error").Inc()
		return 0, err
	}

	transitions.WithLabelValues(string(CmdCreate), ReasonNone.String()).Inc()

	return id, nil
}

func (r *Registry) create(env Env, creator access.Address, draft Draft) (uint64, error) {
	if !env.authenticated(creator) {
		return 0, xerrors.Errorf("creator %v is not the caller: %w", creator, ErrUnauthorized)
	}

	err := types.ValidateContent(draft.Title, draft.Description, draft.Category, draft.Reward)
	if err != nil {
		return 0, xerrors.Errorf("%v: %w", err, ErrInvalidInput)
	}

	r.counter.Lock()
	defer r.counter.Unlock()

	count, found, err := r.readCounter(env.Snapshot)
	if err != nil {
		return 0, xerrors.Errorf("failed to create mission: %v", err)
	}

	if !found {
		return 0, xerrors.Errorf("failed to create mission: %w", ErrNotDeployed)
	}

	id := count + 1

	unlock := r.missions.Lock(strconv.FormatUint(id, 10))
	defer unlock()

	mission := types.Mission{
		ID:          id,
		Creator:     creator,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Reward:      draft.Reward,
		Deadline:    draft.Deadline,
		Status:      types.StatusPending,
		CreatedAt:   env.Timestamp.Unix(),
	}

	err = mem.Stage(env.Snapshot, func(child store.Snapshot) error {
		err := r.writeMission(child, mission)
		if err != nil {
			return err
		}

		err = r.writeCounter(child, id)
		if err != nil {
			return err
		}

		return r.appendIndex(child, creator, id)
	})
	if err != nil {
		return 0, xerrors.Errorf("failed to create mission: %v", err)
	}

	stake.Logger.Info().
		Str("contract", "mission").
		Uint64("id", id).
		Stringer("creator", creator).
		Uint64("reward", draft.Reward).
		Msg("mission created")

	return id, nil
}

// Accept assigns a pending mission to the user.
func (r *Registry) Accept(env Env, id uint64, user access.Address) (bool, error) {
	return result(r.accept(env, id, user))
}

func (r *Registry) accept(env Env, id uint64, user access.Address) (Reason, error) {
	return r.run(CmdAccept, id, func() (Reason, error) {
		if !env.authenticated(user) {
			return ReasonNotAuthenticated, nil
		}

		return r.update(env.Snapshot, id, func(snap store.Snapshot, m *types.Mission) (Reason, error) {
			reason := applyAccept(m, user)
			if !reason.Ok() {
				return reason, nil
			}

			return ReasonNone, r.appendIndex(snap, user, id)
		})
	})
}

// Complete submits the proof of the assignee.
func (r *Registry) Complete(env Env, id uint64, user access.Address, proof string) (bool, error) {
	return result(r.complete(env, id, user, proof))
}

func (r *Registry) complete(env Env, id uint64, user access.Address, proof string) (Reason, error) {
	return r.run(CmdComplete, id, func() (Reason, error) {
		if !env.authenticated(user) {
			return ReasonNotAuthenticated, nil
		}

		return r.update(env.Snapshot, id, func(_ store.Snapshot, m *types.Mission) (Reason, error) {
			return applyComplete(m, user, proof, env.Timestamp.Unix()), nil
		})
	})
}

// Verify records the decision of the creator on the submitted proof. An
// approval transfers the reward to the assignee. When the transfer fails the
// mission is still verified and the payout stays pending until settled.
func (r *Registry) Verify(env Env, id uint64, verifier access.Address, approved bool) (bool, error) {
	return result(r.verify(env, id, verifier, approved))
}

func (r *Registry) verify(env Env, id uint64, verifier access.Address, approved bool) (Reason, error) {
	return r.run(CmdVerify, id, func() (Reason, error) {
		if !env.authenticated(verifier) {
			return ReasonNotAuthenticated, nil
		}

		return r.update(env.Snapshot, id, func(snap store.Snapshot, m *types.Mission) (Reason, error) {
			reason := applyVerify(m, verifier, approved)
			if !reason.Ok() || !approved {
				return reason, nil
			}

			if r.pay(snap, *m) {
				m.PayoutPending = false
			}

			return ReasonNone, nil
		})
	})
}

// Cancel withdraws a pending mission.
func (r *Registry) Cancel(env Env, id uint64, creator access.Address) (bool, error) {
	return result(r.cancel(env, id, creator))
}

func (r *Registry) cancel(env Env, id uint64, creator access.Address) (Reason, error) {
	return r.run(CmdCancel, id, func() (Reason, error) {
		if !env.authenticated(creator) {
			return ReasonNotAuthenticated, nil
		}

		return r.update(env.Snapshot, id, func(_ store.Snapshot, m *types.Mission) (Reason, error) {
			return applyCancel(m, creator), nil
		})
	})
}

// Settle retries the pending payout of a verified mission. Anyone can settle
// as the beneficiary is set by the record.
func (r *Registry) Settle(env Env, id uint64) (bool, error) {
	return result(r.settle(env, id))
}

func (r *Registry) settle(env Env, id uint64) (Reason, error) {
	return r.run(CmdSettle, id, func() (Reason, error) {
		return r.update(env.Snapshot, id, func(snap store.Snapshot, m *types.Mission) (Reason, error) {
			if !m.PayoutPending {
				return ReasonNoPendingPayout, nil
			}

			if !r.pay(snap, *m) {
				return ReasonPayoutFailed, nil
			}

			return applySettle(m), nil
		})
	})
}

// Get returns the mission if it exists, otherwise nil.
func (r *Registry) Get(snap store.Readable, id uint64) (*types.Mission, error) {
	data, err := snap.Get(missionKey(id))
	if err != nil {
		return nil, xerrors.Errorf("failed to read mission %d: %v", id, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	m, err := r.factory.MissionOf(r.context, data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode mission %d: %v", id, err)
	}

	return &m, nil
}

// UserMissions returns the IDs of the missions the address created or
// accepted, in order.
func (r *Registry) UserMissions(snap store.Readable, addr access.Address) ([]uint64, error) {
	return r.index.List(snap, addr)
}

// Count returns the highest mission ID ever allocated.
func (r *Registry) Count(snap store.Readable) (uint64, error) {
	count, _, err := r.readCounter(snap)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// List returns every mission in ID order.
func (r *Registry) List(snap store.Iterable) ([]types.Mission, error) {
	missions := []types.Mission{}

	err := snap.Scan([]byte(missionPrefix), func(key, value []byte) error {
		m, err := r.factory.MissionOf(r.context, value)
		if err != nil {
			return xerrors.Errorf("failed to decode '%x': %v", key, err)
		}

		missions = append(missions, m)

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to list missions: %v", err)
	}

	return missions, nil
}

// PendingPayouts returns the IDs of the verified missions whose reward was not
// transferred yet.
func (r *Registry) PendingPayouts(snap store.Iterable) ([]uint64, error) {
	missions, err := r.List(snap)
	if err != nil {
		return nil, err
	}

	ids := []uint64{}
	for _, m := range missions {
		if m.PayoutPending {
			ids = append(ids, m.ID)
		}
	}

	return ids, nil
}

// run reports the outcome of a transition.
func (r *Registry) run(cmd Command, id uint64, fn func() (Reason, error)) (Reason, error) {
	reason, err := fn()
	if err != nil {
		transitions.WithLabelValues(string(cmd), "error").Inc()
		return reason, xerrors.Errorf("failed to %s mission %d: %v", cmd, id, err)
	}

	transitions.WithLabelValues(string(cmd), reason.String()).Inc()

	event := stake.Logger.Info()
	if !reason.Ok() {
		event = stake.Logger.Debug()
	}

	event.Str("contract", "mission").
		Str("command", string(cmd)).
		Uint64("id", id).
		Stringer("outcome", reason).
		Msg("transition")

	return reason, nil
}

// update loads the mission under its lock. The transition runs on a staged
// snapshot, and its writes are kept together with the record only if the
// transition is applied.
func (r *Registry) update(snap store.Snapshot, id uint64,
	apply func(store.Snapshot, *types.Mission) (Reason, error)) (Reason, error) {

	unlock := r.missions.Lock(strconv.FormatUint(id, 10))
	defer unlock()

	m, err := r.Get(snap, id)
	if err != nil {
		return ReasonNone, err
	}

	if m == nil {
		return ReasonNotFound, nil
	}

	reason := ReasonNone

	err = mem.Stage(snap, func(child store.Snapshot) error {
		var err error

		reason, err = apply(child, m)
		if err != nil {
			return err
		}

		if !reason.Ok() {
			return errRefused
		}

		return r.writeMission(child, *m)
	})
	if xerrors.Is(err, errRefused) {
		return reason, nil
	}

	if err != nil {
		return reason, err
	}

	return ReasonNone, nil
}

// pay transfers the reward of the mission and returns true on success.
func (r *Registry) pay(snap store.Snapshot, m types.Mission) bool {
	if r.distributor == nil {
		payouts.WithLabelValues("deferred").Inc()
		stake.Logger.Warn().Uint64("id", m.ID).Msg("no distributor, payout deferred")

		return false
	}

	err := r.distributor.Transfer(snap, m.Assignee, m.Reward)
	if err != nil {
		payouts.WithLabelValues("deferred").Inc()
		stake.Logger.Warn().Err(err).Uint64("id", m.ID).Msg("payout deferred")

		return false
	}

	payouts.WithLabelValues("paid").Inc()

	return true
}

func (r *Registry) writeMission(snap store.Snapshot, m types.Mission) error {
	data, err := m.Serialize(r.context)
	if err != nil {
		return xerrors.Errorf("failed to encode mission: %v", err)
	}

	err = snap.Set(missionKey(m.ID), data)
	if err != nil {
		return xerrors.Errorf("failed to write mission: %v", err)
	}

	return nil
}

func (r *Registry) appendIndex(snap store.Snapshot, addr access.Address, id uint64) error {
	unlock := r.users.Lock(string(addr[:]))
	defer unlock()

	return r.index.Append(snap, addr, id)
}

func (r *Registry) readCounter(snap store.Readable) (uint64, bool, error) {
	data, err := snap.Get(counterKey)
	if err != nil {
		return 0, false, xerrors.Errorf("failed to read counter: %v", err)
	}

	if len(data) == 0 {
		return 0, false, nil
	}

	if len(data) != 8 {
		return 0, false, xerrors.Errorf("invalid counter length %d", len(data))
	}

	return binary.BigEndian.Uint64(data), true, nil
}

func (r *Registry) writeCounter(snap store.Snapshot, value uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)

	err := snap.Set(counterKey, buffer)
	if err != nil {
		return xerrors.Errorf("failed to write counter: %v", err)
	}

	return nil
}

func missionKey(id uint64) []byte {
	key := make([]byte, len(missionPrefix)+8)
	copy(key, missionPrefix)
	binary.BigEndian.PutUint64(key[len(missionPrefix):], id)

	return key
}

func result(reason Reason, err error) (bool, error) {
	if err != nil {
		return false, err
	}

	return reason.Ok(), nil
}
