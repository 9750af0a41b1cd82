package mission

import (
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/serde"
	"golang.org/x/xerrors"
)

const indexPrefix = "user_missions:"

// userIndex maintains, per address, the ordered list of the missions the
// address created or accepted.
type userIndex struct {
	context serde.Context
	factory types.MessageFactory
}

func indexKey(addr access.Address) []byte {
	return append([]byte(indexPrefix), addr[:]...)
}

// List returns the mission IDs of the address in insertion order. An address
// without any mission has an empty list.
func (idx userIndex) List(snap store.Readable, addr access.Address) ([]uint64, error) {
	data, err := snap.Get(indexKey(addr))
	if err != nil {
		return nil, xerrors.Errorf("failed to read index: %v", err)
	}

	if len(data) == 0 {
		return []uint64{}, nil
	}

	list, err := idx.factory.MissionListOf(idx.context, data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode index of %v: %v", addr, err)
	}

	return list.IDs, nil
}

// Append adds the mission ID at the end of the list of the address. The same
// ID can appear twice.
func (idx userIndex) Append(snap store.Snapshot, addr access.Address, id uint64) error {
	ids, err := idx.List(snap, addr)
	if err != nil {
		return err
	}

	data, err := types.MissionList{IDs: append(ids, id)}.Serialize(idx.context)
	if err != nil {
		return xerrors.Errorf("failed to encode index: %v", err)
	}

	err = snap.Set(indexKey(addr), data)
	if err != nil {
		return xerrors.Errorf("failed to write index: %v", err)
	}

	return nil
}
