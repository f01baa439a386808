package catalog

import "searchmesh.dev/node/meshcore"

// UpdateKind distinguishes the two shapes an update can carry, mirroring the
// freenet-stdlib UpdateData enum this contract was modeled on: either a
// delta (one or many CatalogDelta values) or a full peer state to merge.
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

// Validate decodes and checks a serialized CatalogState against every
// structural invariant (I1, I2, I3, I6). Grounded on
// contract-catalog/src/lib.rs::validate_state.
func Validate(stateBytes []byte) error {
	var state CatalogState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return meshcore.InvalidState("decode: " + err.Error())
	}
	return ValidateState(&state)
}

// ApplyUpdates decodes the current state and parameters, folds every update
// in order (deltas are validated then applied; full states are merged),
// runs finalization, and returns the new serialized state. Grounded on
// contract-catalog/src/lib.rs::update_state.
func ApplyUpdates(paramsBytes, stateBytes []byte, updates []Update) ([]byte, error) {
	var params CatalogParameters
	if err := meshcore.Unmarshal(paramsBytes, &params); err != nil {
		return nil, meshcore.InvalidUpdate("decode parameters: " + err.Error())
	}

	var state CatalogState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidUpdate("decode state: " + err.Error())
	}
	if state.Entries == nil {
		state.Entries = make(map[string]*CatalogEntry)
	}
	if state.Contributors == nil {
		state.Contributors = make(map[PubKey]*ContributorScore)
	}

	for _, u := range updates {
		switch u.Kind {
		case UpdateKindDelta:
			if err := applyDeltaBytes(&state, u.Bytes); err != nil {
				return nil, err
			}
		case UpdateKindState:
			var other CatalogState
			if err := meshcore.Unmarshal(u.Bytes, &other); err != nil {
				return nil, meshcore.InvalidUpdate("decode peer state: " + err.Error())
			}
			Merge(&state, &other)
		}
	}

	Finalize(&state, params.ConfirmationWeightThreshold)

	out, err := meshcore.Marshal(&state)
	if err != nil {
		return nil, meshcore.Other("encode state: " + err.Error())
	}
	return out, nil
}

// applyDeltaBytes accepts either a single CatalogDelta or a slice of them,
// matching the original contract's dual decode-attempt shape.
func applyDeltaBytes(state *CatalogState, data []byte) error {
	var delta CatalogDelta
	if err := meshcore.Unmarshal(data, &delta); err == nil && delta.ContractKey != "" {
		if err := ValidateDelta(&delta); err != nil {
			return err
		}
		ApplyDelta(state, &delta)
		return nil
	}

	var deltas []CatalogDelta
	if err := meshcore.Unmarshal(data, &deltas); err == nil {
		for i := range deltas {
			if err := ValidateDelta(&deltas[i]); err != nil {
				return err
			}
			ApplyDelta(state, &deltas[i])
		}
		return nil
	}

	return meshcore.InvalidUpdate("update payload is neither a delta nor a delta batch")
}

// SummarizeBytes decodes state and returns its bloom-filter fingerprint.
// Grounded on contract-catalog/src/lib.rs::summarize_state.
func SummarizeBytes(stateBytes []byte) ([]byte, error) {
	var state CatalogState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidState("decode: " + err.Error())
	}
	return Summarize(&state), nil
}

// DiffBytes decodes state and a peer's summary, and returns the serialized
// batch of deltas the peer is missing. Grounded on
// contract-catalog/src/lib.rs::get_state_delta.
func DiffBytes(stateBytes, summaryBytes []byte) ([]byte, error) {
	var state CatalogState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, meshcore.InvalidState("decode: " + err.Error())
	}

	missing, err := Diff(&state, summaryBytes)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return meshcore.Marshal([]CatalogDelta{})
	}
	return meshcore.Marshal(missing)
}
