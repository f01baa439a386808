package shard

import "searchmesh.dev/node/meshcore"

// ShardForWord routes a term to a shard ID, delegating to
// meshcore.ShardForTerm (spec §6).
func ShardForWord(word string, shardCount uint8) uint8 {
	return meshcore.ShardForTerm(word, shardCount)
}

// UpdateKind distinguishes a delta update from a full peer state to merge.
type UpdateKind int

const (
	UpdateKindDelta UpdateKind = iota
	UpdateKindState
)

// Update is one item of the update batch passed to ApplyUpdates.
type Update struct {
	Kind  UpdateKind
	Bytes []byte
}

// Validate decodes and checks a serialized ShardState. Grounded on
// contract-fulltext-shard/src/lib.rs::validate_state.
func Validate(stateBytes []byte) error {
	var state ShardState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return meshcore.InvalidState("decode: " + err.Error())
	}
	return ValidateState(&state, ShardForWord)
}

// ApplyUpdates decodes the current state, folds every update in order, and
// returns the new serialized state. Grounded on
// contract-fulltext-shard/src/lib.rs::update_state.
func ApplyUpdates(stateBytes []byte, updates []Update) ([]byte, error) {
	var state ShardState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidUpdate("decode state: " + err.Error())
	}
	if state.Index == nil {
		state.Index = make(map[string][]*TermEntry)
	}

	for _, u := range updates {
		switch u.Kind {
		case UpdateKindDelta:
			if err := applyDeltaBytes(&state, u.Bytes); err != nil {
				return nil, err
			}
		case UpdateKindState:
			var other ShardState
			if err := meshcore.Unmarshal(u.Bytes, &other); err != nil {
				return nil, meshcore.InvalidUpdate("decode peer state: " + err.Error())
			}
			Merge(&state, &other)
		}
	}

	out, err := meshcore.Marshal(&state)
	if err != nil {
		return nil, meshcore.Other("encode state: " + err.Error())
	}
	return out, nil
}

func applyDeltaBytes(state *ShardState, data []byte) error {
	var delta ShardDelta
	if err := meshcore.Unmarshal(data, &delta); err == nil && len(delta.Entries) > 0 {
		if err := ValidateDelta(state, &delta, ShardForWord); err != nil {
			return err
		}
		ApplyDelta(state, &delta)
		return nil
	}

	var deltas []ShardDelta
	if err := meshcore.Unmarshal(data, &deltas); err == nil {
		for i := range deltas {
			if err := ValidateDelta(state, &deltas[i], ShardForWord); err != nil {
				return err
			}
			ApplyDelta(state, &deltas[i])
		}
		return nil
	}

	return meshcore.InvalidUpdate("update payload is neither a delta nor a delta batch")
}

// SummarizeBytes decodes state and returns its bloom-filter fingerprint.
func SummarizeBytes(stateBytes []byte) ([]byte, error) {
	var state ShardState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidState("decode: " + err.Error())
	}
	return Summarize(&state), nil
}

// DiffBytes decodes state and a peer's summary, and returns the serialized
// delta batch the peer is missing (an empty CBOR array if nothing is
// missing).
func DiffBytes(stateBytes, summaryBytes []byte) ([]byte, error) {
	var state ShardState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidState("decode: " + err.Error())
	}

	delta, err := Diff(&state, summaryBytes)
	if err != nil {
		return nil, err
	}
	if delta == nil {
		return meshcore.Marshal([]ShardDelta{})
	}
	return meshcore.Marshal(delta)
}
