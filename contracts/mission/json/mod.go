// Package json implements the JSON format of the mission contract messages.
//
// The records are decoded field by field against a fixed schema. Anything
// unexpected in the stored bytes is a decode error.
package json

import (
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/serde"
	"golang.org/x/xerrors"
)

// SchemaVersion is the version of the record schema written by this format.
const SchemaVersion = 1

func init() {
	types.RegisterMessageFormat(serde.FormatJSON, newMsgFormat())
}

// MissionJSON is the JSON message of a mission. The pointers mark the fields
// that must be present.
type MissionJSON struct {
	Version       *int    `json:"version"`
	ID            *uint64 `json:"id"`
	Creator       *string `json:"creator"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Category      string  `json:"category"`
	Reward        *uint64 `json:"reward"`
	Deadline      int64   `json:"deadline"`
	Status        *string `json:"status"`
	Assignee      string  `json:"assignee"`
	Proof         string  `json:"proof"`
	CreatedAt     int64   `json:"created_at"`
	CompletedAt   int64   `json:"completed_at"`
	PayoutPending bool    `json:"payout_pending"`
}

// MissionListJSON is the JSON message of a list of mission IDs.
type MissionListJSON struct {
	Version *int     `json:"version"`
	IDs     []uint64 `json:"ids"`
}

// Message is the envelope of the messages. Exactly one member must be set.
type Message struct {
	Mission     *MissionJSON     `json:",omitempty"`
	MissionList *MissionListJSON `json:",omitempty"`
}

// msgFormat is the engine to encode and decode mission messages in JSON
// format.
//
// - implements serde.FormatEngine
type msgFormat struct{}

func newMsgFormat() msgFormat {
	return msgFormat{}
}

// Encode implements serde.FormatEngine. It returns the serialized data for the
// message in JSON format.
func (f msgFormat) Encode(ctx serde.Context, message serde.Message) ([]byte, error) {
	var m Message

	switch in := message.(type) {
	case types.Mission:
		err := in.Validate()
		if err != nil {
			return nil, xerrors.Errorf("invalid mission: %v", err)
		}

		m = Message{Mission: encodeMission(in)}
	case types.MissionList:
		ids := in.IDs
		if ids == nil {
			ids = []uint64{}
		}

		m = Message{MissionList: &MissionListJSON{Version: version(), IDs: ids}}
	default:
		return nil, xerrors.Errorf("unsupported message of type '%T'", message)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the message from the JSON
// data if appropriate, otherwise it returns an error.
func (f msgFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := Message{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't deserialize message: %v", err)
	}

	if m.Mission != nil && m.MissionList != nil {
		return nil, xerrors.New("message has more than one member")
	}

	if m.Mission != nil {
		mission, err := decodeMission(*m.Mission)
		if err != nil {
			return nil, xerrors.Errorf("invalid mission: %v", err)
		}

		return mission, nil
	}

	if m.MissionList != nil {
		list, err := decodeMissionList(*m.MissionList)
		if err != nil {
			return nil, xerrors.Errorf("invalid mission list: %v", err)
		}

		return list, nil
	}

	return nil, xerrors.New("message is empty")
}

func encodeMission(m types.Mission) *MissionJSON {
	id := m.ID
	creator := m.Creator.String()
	title := m.Title
	description := m.Description
	reward := m.Reward
	status := m.Status.String()

	assignee := ""
	if !m.Assignee.IsZero() {
		assignee = m.Assignee.String()
	}

	return &MissionJSON{
		Version:       version(),
		ID:            &id,
		Creator:       &creator,
		Title:         &title,
		Description:   &description,
		Category:      m.Category,
		Reward:        &reward,
		Deadline:      m.Deadline,
		Status:        &status,
		Assignee:      assignee,
		Proof:         m.Proof,
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
		PayoutPending: m.PayoutPending,
	}
}

func decodeMission(in MissionJSON) (types.Mission, error) {
	err := checkVersion(in.Version)
	if err != nil {
		return types.Mission{}, err
	}

	switch {
	case in.ID == nil:
		return types.Mission{}, missing("id")
	case in.Creator == nil:
		return types.Mission{}, missing("creator")
	case in.Title == nil:
		return types.Mission{}, missing("title")
	case in.Description == nil:
		return types.Mission{}, missing("description")
	case in.Reward == nil:
		return types.Mission{}, missing("reward")
	case in.Status == nil:
		return types.Mission{}, missing("status")
	}

	creator, err := access.ParseAddress(*in.Creator)
	if err != nil {
		return types.Mission{}, xerrors.Errorf("creator: %v", err)
	}

	var assignee access.Address
	if in.Assignee != "" {
		assignee, err = access.ParseAddress(in.Assignee)
		if err != nil {
			return types.Mission{}, xerrors.Errorf("assignee: %v", err)
		}
	}

	status, err := types.ParseStatus(*in.Status)
	if err != nil {
		return types.Mission{}, err
	}

	m := types.Mission{
		ID:            *in.ID,
		Creator:       creator,
		Title:         *in.Title,
		Description:   *in.Description,
		Category:      in.Category,
		Reward:        *in.Reward,
		Deadline:      in.Deadline,
		Status:        status,
		Assignee:      assignee,
		Proof:         in.Proof,
		CreatedAt:     in.CreatedAt,
		CompletedAt:   in.CompletedAt,
		PayoutPending: in.PayoutPending,
	}

	err = m.Validate()
	if err != nil {
		return types.Mission{}, err
	}

	return m, nil
}

func decodeMissionList(in MissionListJSON) (types.MissionList, error) {
	err := checkVersion(in.Version)
	if err != nil {
		return types.MissionList{}, err
	}

	if in.IDs == nil {
		return types.MissionList{}, missing("ids")
	}

	for _, id := range in.IDs {
		if id == 0 {
			return types.MissionList{}, xerrors.New("mission id must be positive")
		}
	}

	return types.MissionList{IDs: in.IDs}, nil
}

func checkVersion(v *int) error {
	if v == nil {
		return missing("version")
	}

	if *v != SchemaVersion {
		return xerrors.Errorf("unsupported schema version %d", *v)
	}

	return nil
}

func missing(field string) error {
	return xerrors.Errorf("field '%s' is missing", field)
}

func version() *int {
	v := SchemaVersion
	return &v
}
