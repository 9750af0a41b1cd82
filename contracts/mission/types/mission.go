// Package types defines the data model of the mission contract.
package types

import (
	"unicode/utf8"

	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/serde"
	"go.missionstake.io/stake/serde/registry"
	"golang.org/x/xerrors"
)

const (
	// MaxTitleLen is the maximum number of characters of a title.
	MaxTitleLen = 100

	// MaxDescriptionLen is the maximum number of characters of a description.
	MaxDescriptionLen = 500

	// MaxCategoryLen is the maximum number of characters of a category.
	MaxCategoryLen = 50

	// MaxProofLen is the maximum number of characters of a proof.
	MaxProofLen = 1000
)

var msgFormats = registry.NewSimpleRegistry()

// RegisterMessageFormat register the engine for the provided format.
func RegisterMessageFormat(c serde.Format, f serde.FormatEngine) {
	msgFormats.Register(c, f)
}

// Status is the position of a mission in its lifecycle.
type Status uint8

const (
	// StatusPending is the status of a mission waiting for an assignee.
	StatusPending Status = iota

	// StatusInProgress is the status of an accepted mission.
	StatusInProgress

	// StatusCompleted is the status of a mission whose proof waits for the
	// creator's verification.
	StatusCompleted

	// StatusVerified is the terminal status of an approved mission.
	StatusVerified

	// StatusCancelled is the terminal status of a mission withdrawn before
	// anyone accepted it.
	StatusCancelled
)

var statusNames = [...]string{"pending", "in_progress", "completed", "verified", "cancelled"}

// String implements fmt.Stringer.
func (s Status) String() string {
	if !s.Valid() {
		return "unknown"
	}

	return statusNames[s]
}

// Valid returns true if the status is one of the known values.
func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

// Terminal returns true when no transition can leave the status.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusCancelled
}

// HasAssignee returns true for the statuses that require an assignee.
func (s Status) HasAssignee() bool {
	return s == StatusInProgress || s == StatusCompleted || s == StatusVerified
}

// ParseStatus returns the status of the name.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}

	return 0, xerrors.Errorf("unknown status '%s'", name)
}

// Mission is a task with an escrowed reward.
//
// - implements serde.Message
type Mission struct {
	ID          uint64
	Creator     access.Address
	Title       string
	Description string
	Category    string
	Reward      uint64
	Deadline    int64
	Status      Status
	Assignee    access.Address
	Proof       string
	CreatedAt   int64
	CompletedAt int64

	// PayoutPending is set when the mission was approved but the reward has
	// not been transferred yet.
	PayoutPending bool
}

// Validate checks the fields of the mission and the invariant binding the
// status and the assignee.
func (m Mission) Validate() error {
	if m.ID == 0 {
		return xerrors.New("mission id must be positive")
	}

	if m.Creator.IsZero() {
		return xerrors.New("creator is missing")
	}

	err := ValidateContent(m.Title, m.Description, m.Category, m.Reward)
	if err != nil {
		return err
	}

	err = ValidateProof(m.Proof)
	if err != nil {
		return err
	}

	if !m.Status.Valid() {
		return xerrors.Errorf("invalid status %d", m.Status)
	}

	if m.Status.HasAssignee() == m.Assignee.IsZero() {
		return xerrors.Errorf("assignee does not match status '%s'", m.Status)
	}

	if m.PayoutPending && m.Status != StatusVerified {
		return xerrors.Errorf("pending payout on status '%s'", m.Status)
	}

	return nil
}

// ValidateContent checks the fields provided by the creator of a mission. The
// text must be valid UTF-8 so that it is stored byte for byte.
func ValidateContent(title, description, category string, reward uint64) error {
	switch {
	case !utf8.ValidString(title):
		return xerrors.New("title is not valid UTF-8")
	case !utf8.ValidString(description):
		return xerrors.New("description is not valid UTF-8")
	case !utf8.ValidString(category):
		return xerrors.New("category is not valid UTF-8")
	}

	n := utf8.RuneCountInString(title)
	if n == 0 || n > MaxTitleLen {
		return xerrors.Errorf("title must have 1 to %d characters", MaxTitleLen)
	}

	n = utf8.RuneCountInString(description)
	if n == 0 || n > MaxDescriptionLen {
		return xerrors.Errorf("description must have 1 to %d characters", MaxDescriptionLen)
	}

	if utf8.RuneCountInString(category) > MaxCategoryLen {
		return xerrors.Errorf("category is longer than %d characters", MaxCategoryLen)
	}

	if reward == 0 {
		return xerrors.New("reward must be positive")
	}

	return nil
}

// ValidateProof checks the proof submitted by the assignee.
func ValidateProof(proof string) error {
	if !utf8.ValidString(proof) {
		return xerrors.New("proof is not valid UTF-8")
	}

	if utf8.RuneCountInString(proof) > MaxProofLen {
		return xerrors.Errorf("proof is longer than %d characters", MaxProofLen)
	}

	return nil
}

// Serialize implements serde.Message. It looks up the format and returns the
// serialized data for the mission.
func (m Mission) Serialize(ctx serde.Context) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode mission: %v", err)
	}

	return data, nil
}

// MissionList is the ordered list of mission IDs an address is involved in.
//
// - implements serde.Message
type MissionList struct {
	IDs []uint64
}

// Serialize implements serde.Message. It looks up the format and returns the
// serialized data for the list.
func (l MissionList) Serialize(ctx serde.Context) ([]byte, error) {
	format := msgFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, l)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode mission list: %v", err)
	}

	return data, nil
}

// MessageFactory deserializes the messages of the mission contract.
//
// - implements serde.Factory
type MessageFactory struct{}

// Deserialize implements serde.Factory.
func (MessageFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := msgFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode message: %v", err)
	}

	return msg, nil
}

// MissionOf returns the mission stored in the data. It fails if the data is
// not a valid mission.
func (f MessageFactory) MissionOf(ctx serde.Context, data []byte) (Mission, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return Mission{}, err
	}

	m, ok := msg.(Mission)
	if !ok {
		return Mission{}, xerrors.Errorf("invalid mission of type '%T'", msg)
	}

	return m, nil
}

// MissionListOf returns the mission list stored in the data.
func (f MessageFactory) MissionListOf(ctx serde.Context, data []byte) (MissionList, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return MissionList{}, err
	}

	l, ok := msg.(MissionList)
	if !ok {
		return MissionList{}, xerrors.Errorf("invalid mission list of type '%T'", msg)
	}

	return l, nil
}
