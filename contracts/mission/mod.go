// Package mission implements the mission contract: one party posts a task
// with an escrowed reward, a second party accepts and completes it, and the
// creator verifies the proof and releases the reward.
//
// The registry owns the records. It can be used directly on a snapshot, or
// through the native contract that maps the arguments of a transaction to
// the registry operations.
//
// Creating a mission fails with an error that aborts the whole transaction.
// The other transitions are refused with a reason and leave the snapshot
// untouched.
package mission

import (
	"encoding/binary"
	"strconv"

	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/store"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "go.missionstake.io/stake.Mission"

	// ContractUID is the unique 4-bytes identifier of the contract.
	ContractUID = "MISN"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "mission:command"

	// IDArg is the argument's name of the mission ID, as a decimal string.
	IDArg = "mission:id"

	// ActorArg is the argument's name of the address acting on the mission:
	// the creator, the user or the verifier depending on the command.
	ActorArg = "mission:actor"

	// TitleArg is the argument's name of the title of a new mission.
	TitleArg = "mission:title"

	// DescriptionArg is the argument's name of the description of a new
	// mission.
	DescriptionArg = "mission:description"

	// CategoryArg is the argument's name of the category of a new mission.
	CategoryArg = "mission:category"

	// RewardArg is the argument's name of the reward of a new mission.
	RewardArg = "mission:reward"

	// DeadlineArg is the argument's name of the deadline of a new mission, in
	// unix seconds.
	DeadlineArg = "mission:deadline"

	// ProofArg is the argument's name of the proof of completion.
	ProofArg = "mission:proof"

	// ApprovedArg is the argument's name of the decision of the verifier.
	ApprovedArg = "mission:approved"
)

// Command defines a type of command for the mission contract.
type Command string

const (
	// CmdDeploy defines the command to initialize the registry.
	CmdDeploy Command = "DEPLOY"

	// CmdCreate defines the command to post a new mission. The output of the
	// result is the 8-bytes big-endian ID of the mission.
	CmdCreate Command = "CREATE"

	// CmdAccept defines the command to accept a pending mission.
	CmdAccept Command = "ACCEPT"

	// CmdComplete defines the command to submit the proof of a mission.
	CmdComplete Command = "COMPLETE"

	// CmdVerify defines the command to approve or reject a proof.
	CmdVerify Command = "VERIFY"

	// CmdCancel defines the command to withdraw a pending mission.
	CmdCancel Command = "CANCEL"

	// CmdSettle defines the command to retry a pending payout.
	CmdSettle Command = "SETTLE"
)

// RegisterContract registers the mission contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the missions.
//
// - implements native.Contract
type Contract struct {
	registry *Registry
}

// NewContract creates a new mission contract over the registry.
func NewContract(registry *Registry) Contract {
	return Contract{registry: registry}
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Execute implements native.Contract. It runs the appropriate command. A
// refused transition is not an error: the result is not accepted and its
// message is the reason.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return execution.Result{}, xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	env := Env{
		Snapshot:  snap,
		Auth:      access.NewWitness(step.Current.GetWitnesses()...),
		Timestamp: step.Timestamp,
	}

	args := argReader{step: step}

	switch Command(cmd) {
	case CmdDeploy:
		done, err := c.registry.Deploy(snap)
		if err != nil {
			return execution.Result{}, err
		}

		if !done {
			return execution.Result{Message: "already_deployed"}, nil
		}

		return execution.Result{Accepted: true}, nil
	case CmdCreate:
		return c.create(env, args)
	case CmdAccept, CmdComplete, CmdVerify, CmdCancel, CmdSettle:
		reason, err := c.transition(env, Command(cmd), args)
		if err != nil {
			return execution.Result{}, err
		}

		return execution.Result{Accepted: reason.Ok(), Message: string(reason)}, nil
	default:
		return execution.Result{}, xerrors.Errorf("unknown command: %s", cmd)
	}
}

func (c Contract) create(env Env, args argReader) (execution.Result, error) {
	creator, err := args.address(ActorArg)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("%v: %w", err, ErrInvalidInput)
	}

	reward, err := args.unsigned(RewardArg)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("%v: %w", err, ErrInvalidInput)
	}

	deadline, err := args.signed(DeadlineArg)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("%v: %w", err, ErrInvalidInput)
	}

	draft := Draft{
		Title:       args.text(TitleArg),
		Description: args.text(DescriptionArg),
		Category:    args.text(CategoryArg),
		Reward:      reward,
		Deadline:    deadline,
	}

	id, err := c.registry.Create(env, creator, draft)
	if err != nil {
		return execution.Result{}, err
	}

	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, id)

	return execution.Result{Accepted: true, Output: out}, nil
}

func (c Contract) transition(env Env, cmd Command, args argReader) (Reason, error) {
	id, err := args.unsigned(IDArg)
	if err != nil {
		return ReasonNone, err
	}

	if cmd == CmdSettle {
		return c.registry.settle(env, id)
	}

	actor, err := args.address(ActorArg)
	if err != nil {
		return ReasonNone, err
	}

	switch cmd {
	case CmdAccept:
		return c.registry.accept(env, id, actor)
	case CmdComplete:
		return c.registry.complete(env, id, actor, args.text(ProofArg))
	case CmdVerify:
		approved, err := strconv.ParseBool(args.text(ApprovedArg))
		if err != nil {
			return ReasonNone, xerrors.Errorf("invalid '%s': %v", ApprovedArg, err)
		}

		return c.registry.verify(env, id, actor, approved)
	default:
		return c.registry.cancel(env, id, actor)
	}
}

// argReader parses the arguments of the current transaction.
type argReader struct {
	step execution.Step
}

func (r argReader) text(key string) string {
	return string(r.step.Current.GetArg(key))
}

func (r argReader) address(key string) (access.Address, error) {
	addr, err := access.ParseAddress(r.text(key))
	if err != nil {
		return addr, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return addr, nil
}

func (r argReader) unsigned(key string) (uint64, error) {
	value, err := strconv.ParseUint(r.text(key), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return value, nil
}

// signed returns zero when the argument is missing.
func (r argReader) signed(key string) (int64, error) {
	text := r.text(key)
	if text == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return value, nil
}
