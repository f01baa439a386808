// Command meshnode is a replica-maintenance CLI: it opens a local
// replica.Store, optionally folds in a catalog or shard delta file, runs
// catalog finalization, and prints the replica's resulting status. It has no
// network transport of its own (the overlay/gossip transport is explicitly
// out of scope, per spec) — anti-entropy exchange is driven by whatever
// embeds the antientropy package against a real connection; this binary only
// manages the on-disk state those exchanges read and write.
//
// Grounded on cmd/rubin-node/main.go's run(args, stdout, stderr) int
// testable-entrypoint idiom.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"searchmesh.dev/node/catalog"
	"searchmesh.dev/node/meshcore"
	"searchmesh.dev/node/replica"
	"searchmesh.dev/node/shard"
)

type multiStringFlag []string

func (m *multiStringFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiStringFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

type meshConfig struct {
	DataDir               string
	NodeID                string
	ShardIDs              []uint8
	ConfirmationThreshold uint32
}

func defaultMeshDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".searchmesh"
	}
	return filepath.Join(home, ".searchmesh")
}

func defaultMeshConfig() meshConfig {
	return meshConfig{
		DataDir:               defaultMeshDataDir(),
		NodeID:                "",
		ShardIDs:              nil,
		ConfirmationThreshold: 3,
	}
}

func validateMeshConfig(cfg meshConfig) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("datadir is required")
	}
	if cfg.ConfirmationThreshold == 0 {
		return fmt.Errorf("confirmation-threshold must be > 0")
	}
	for _, id := range cfg.ShardIDs {
		if id >= shard.ShardCount {
			return fmt.Errorf("shard id %d out of range [0,%d)", id, shard.ShardCount)
		}
	}
	return nil
}

func parseShardIDs(csv string) ([]uint8, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []uint8
	seen := make(map[uint8]struct{})
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid shard id %q: %w", tok, err)
		}
		id := uint8(n)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := defaultMeshConfig()
	var peers multiStringFlag

	cfg := defaults
	fs := flag.NewFlagSet("meshnode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	shardCSV := fs.String("shards", "", "shard ids this replica hosts, comma-separated")
	fs.StringVar(&cfg.NodeID, "node-id", defaults.NodeID, "this replica's node id (bookkeeping only)")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "replica data directory")
	fs.Var(&peers, "peer", "known anti-entropy peer id (repeatable, bookkeeping only)")
	threshold := fs.Uint("confirmation-threshold", uint(defaults.ConfirmationThreshold), "catalog confirmation weight threshold")
	applyCatalogDelta := fs.String("apply-catalog-delta", "", "path to a CBOR-encoded CatalogDelta or []CatalogDelta to fold in")
	applyShardDelta := fs.String("apply-shard-delta", "", "path to a CBOR-encoded ShardDelta to fold in")
	shardDeltaTarget := fs.Uint("shard-delta-id", 0, "shard id that -apply-shard-delta targets")
	finalize := fs.Bool("finalize", false, "run catalog finalization and persist the result")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var err error
	cfg.ShardIDs, err = parseShardIDs(*shardCSV)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	cfg.ConfirmationThreshold = uint32(*threshold)
	if err := validateMeshConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	if err := printMeshConfig(stdout, cfg, peers); err != nil {
		_, _ = fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if *dryRun {
		return 0
	}

	store, err := replica.Open(cfg.DataDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "replica open failed: %v\n", err)
		return 2
	}
	defer func() { _ = store.Close() }()

	catalogState, err := loadOrInitCatalog(store)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "catalog load failed: %v\n", err)
		return 2
	}

	if *applyCatalogDelta != "" {
		if err := applyCatalogDeltaFile(catalogState, cfg.ConfirmationThreshold, *applyCatalogDelta); err != nil {
			_, _ = fmt.Fprintf(stderr, "apply catalog delta failed: %v\n", err)
			return 2
		}
	}
	if *finalize {
		catalog.Finalize(catalogState, cfg.ConfirmationThreshold)
	}
	if err := persistCatalog(store, catalogState); err != nil {
		_, _ = fmt.Fprintf(stderr, "catalog persist failed: %v\n", err)
		return 2
	}

	shardStates := make(map[uint8]*shard.ShardState, len(cfg.ShardIDs))
	for _, id := range cfg.ShardIDs {
		st, err := loadOrInitShard(store, id)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "shard %d load failed: %v\n", id, err)
			return 2
		}
		shardStates[id] = st
	}

	if *applyShardDelta != "" {
		id := uint8(*shardDeltaTarget)
		st, ok := shardStates[id]
		if !ok {
			st, err = loadOrInitShard(store, id)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "shard %d load failed: %v\n", id, err)
				return 2
			}
			shardStates[id] = st
		}
		if err := applyShardDeltaFile(st, *applyShardDelta); err != nil {
			_, _ = fmt.Fprintf(stderr, "apply shard delta failed: %v\n", err)
			return 2
		}
	}
	for id, st := range shardStates {
		if err := persistShard(store, id, st); err != nil {
			_, _ = fmt.Fprintf(stderr, "shard %d persist failed: %v\n", id, err)
			return 2
		}
	}

	if err := updateManifest(store, cfg, peers); err != nil {
		_, _ = fmt.Fprintf(stderr, "manifest update failed: %v\n", err)
		return 2
	}

	printStatus(stdout, catalogState, shardStates)
	return 0
}

func loadOrInitCatalog(store *replica.Store) (*catalog.CatalogState, error) {
	stateBytes, ok, err := store.GetCatalogState()
	if err != nil {
		return nil, err
	}
	if !ok {
		return catalog.NewCatalogState(), nil
	}
	var state catalog.CatalogState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, fmt.Errorf("decode catalog state: %w", err)
	}
	if state.Entries == nil {
		state.Entries = make(map[string]*catalog.CatalogEntry)
	}
	if state.Contributors == nil {
		state.Contributors = make(map[catalog.PubKey]*catalog.ContributorScore)
	}
	return &state, nil
}

func persistCatalog(store *replica.Store, state *catalog.CatalogState) error {
	b, err := meshcore.Marshal(state)
	if err != nil {
		return err
	}
	return store.PutCatalogState(b)
}

func loadOrInitShard(store *replica.Store, id uint8) (*shard.ShardState, error) {
	stateBytes, ok, err := store.GetShardState(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return shard.NewShardState(id), nil
	}
	var state shard.ShardState
	if err := meshcore.Unmarshal(stateBytes, &state); err != nil {
		return nil, fmt.Errorf("decode shard %d state: %w", id, err)
	}
	if state.Index == nil {
		state.Index = make(map[string][]*shard.TermEntry)
	}
	return &state, nil
}

func persistShard(store *replica.Store, id uint8, state *shard.ShardState) error {
	b, err := meshcore.Marshal(state)
	if err != nil {
		return err
	}
	return store.PutShardState(id, b)
}

func applyCatalogDeltaFile(state *catalog.CatalogState, threshold uint32, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	params := catalog.CatalogParameters{ConfirmationWeightThreshold: threshold}
	paramsBytes, err := meshcore.Marshal(params)
	if err != nil {
		return err
	}
	stateBytes, err := meshcore.Marshal(state)
	if err != nil {
		return err
	}
	updated, err := catalog.ApplyUpdates(paramsBytes, stateBytes, []catalog.Update{{Kind: catalog.UpdateKindDelta, Bytes: data}})
	if err != nil {
		return err
	}
	var next catalog.CatalogState
	if err := meshcore.Unmarshal(updated, &next); err != nil {
		return err
	}
	*state = next
	return nil
}

func applyShardDeltaFile(state *shard.ShardState, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	stateBytes, err := meshcore.Marshal(state)
	if err != nil {
		return err
	}
	updated, err := shard.ApplyUpdates(stateBytes, []shard.Update{{Kind: shard.UpdateKindDelta, Bytes: data}})
	if err != nil {
		return err
	}
	var next shard.ShardState
	if err := meshcore.Unmarshal(updated, &next); err != nil {
		return err
	}
	*state = next
	return nil
}

func updateManifest(store *replica.Store, cfg meshConfig, peers multiStringFlag) error {
	m := store.Manifest()
	if m == nil {
		m = &replica.Manifest{SchemaVersion: replica.SchemaVersionV1, LastAntiEntropyAt: make(map[string]int64)}
	}
	if m.LastAntiEntropyAt == nil {
		m.LastAntiEntropyAt = make(map[string]int64)
	}
	if cfg.NodeID != "" {
		m.NodeID = cfg.NodeID
	}
	if len(cfg.ShardIDs) > 0 {
		m.KnownShardIDs = cfg.ShardIDs
	}
	for _, p := range peers {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, known := m.LastAntiEntropyAt[p]; !known {
			m.LastAntiEntropyAt[p] = 0
		}
	}
	return store.SetManifest(m)
}

func printMeshConfig(w io.Writer, cfg meshConfig, peers multiStringFlag) error {
	view := struct {
		DataDir               string   `json:"data_dir"`
		NodeID                string   `json:"node_id"`
		ShardIDs              []uint8  `json:"shard_ids"`
		ConfirmationThreshold uint32   `json:"confirmation_weight_threshold"`
		Peers                 []string `json:"peers"`
	}{cfg.DataDir, cfg.NodeID, cfg.ShardIDs, cfg.ConfirmationThreshold, []string(peers)}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func printStatus(w io.Writer, state *catalog.CatalogState, shards map[uint8]*shard.ShardState) {
	_, _ = fmt.Fprintf(w, "catalog: entries=%d contributors=%d\n", len(state.Entries), len(state.Contributors))
	ids := make([]uint8, 0, len(shards))
	for id := range shards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		postings := 0
		for _, entries := range shards[id].Index {
			postings += len(entries)
		}
		_, _ = fmt.Fprintf(w, "shard %d: terms=%d postings=%d\n", id, len(shards[id].Index), postings)
	}
}
