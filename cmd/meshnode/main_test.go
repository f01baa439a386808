package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"searchmesh.dev/node/catalog"
	"searchmesh.dev/node/meshcore"
	"searchmesh.dev/node/shard"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestMultiStringFlagSetAppends(t *testing.T) {
	var m multiStringFlag
	if err := m.Set("a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Set("b"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := m.String(); got != "a,b" {
		t.Fatalf("string=%q, want %q", got, "a,b")
	}
}

func TestRunDryRunOK(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--node-id", "n1"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if out.Len() == 0 {
		t.Fatalf("expected stdout output")
	}
	// dry-run must not touch the datadir.
	if _, err := os.Stat(filepath.Join(dir, "replica.db")); err == nil {
		t.Fatalf("expected no replica.db to be created on dry-run")
	}
}

func TestRunInvalidConfigZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--confirmation-threshold", "0"}, &out, &errOut)
	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
}

func TestRunInvalidConfigShardIDOutOfRange(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--shards", "99"}, &out, &errOut)
	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
}

func TestRunParseErrorUnknownFlag(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--unknown-flag"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunPrintConfigFailsWhenStdoutFails(t *testing.T) {
	dir := t.TempDir()
	var errOut bytes.Buffer
	code := run([]string{"--dry-run", "--datadir", dir}, failWriter{}, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunCreatesEmptyCatalogOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"--datadir", dir, "--node-id", "n1", "--shards", "0,1"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("catalog: entries=0 contributors=0")) {
		t.Fatalf("expected empty catalog status, got %q", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("shard 0:")) || !bytes.Contains(out.Bytes(), []byte("shard 1:")) {
		t.Fatalf("expected shard 0 and shard 1 status, got %q", out.String())
	}
}

func TestRunApplyCatalogDeltaPersists(t *testing.T) {
	dir := t.TempDir()

	var pub catalog.PubKey
	pub[0] = 7
	hash := meshcore.MetadataHash("hello", "world", "snip")
	delta := catalog.CatalogDelta{
		ContractKey:  "contract-1",
		Title:        "hello",
		Description:  "world",
		MiniSnippet:  "snip",
		Snippet:      "snip",
		MetadataHash: catalog.MetadataHash(hash),
		Attestation: catalog.Attestation{
			ContributorPubkey: pub,
			AntifloodToken:    catalog.AntifloodToken{Nonce: []byte{0x01}, Difficulty: 1},
			TokenCreatedAt:    100,
		},
	}
	deltaBytes, err := meshcore.Marshal(delta)
	if err != nil {
		t.Fatalf("marshal delta: %v", err)
	}
	deltaPath := filepath.Join(dir, "delta.cbor")
	if err := os.WriteFile(deltaPath, deltaBytes, 0o600); err != nil {
		t.Fatalf("write delta file: %v", err)
	}

	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{
		"--datadir", dir,
		"--apply-catalog-delta", deltaPath,
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("catalog: entries=1 contributors=0")) {
		t.Fatalf("expected one entry (not yet confirmed, so no trust recorded), got %q", out.String())
	}

	var out2 bytes.Buffer
	var errOut2 bytes.Buffer
	code = run([]string{"--datadir", dir}, &out2, &errOut2)
	if code != 0 {
		t.Fatalf("second run: expected exit code 0, got %d (stderr=%q)", code, errOut2.String())
	}
	if !bytes.Contains(out2.Bytes(), []byte("catalog: entries=1 contributors=0")) {
		t.Fatalf("expected persisted entry on reopen, got %q", out2.String())
	}
}

func TestRunApplyShardDeltaPersists(t *testing.T) {
	dir := t.TempDir()

	sd := shard.ShardDelta{
		Entries: []shard.ShardDeltaEntry{
			{Word: "term", ContractKey: "c1", Snippet: "s", TFIDFScore: 10},
		},
		AntifloodToken: shard.AntifloodToken{Nonce: []byte{0x01}, Difficulty: 1},
	}
	deltaBytes, err := meshcore.Marshal(sd)
	if err != nil {
		t.Fatalf("marshal delta: %v", err)
	}
	deltaPath := filepath.Join(dir, "shard-delta.cbor")
	if err := os.WriteFile(deltaPath, deltaBytes, 0o600); err != nil {
		t.Fatalf("write delta file: %v", err)
	}

	targetShard := shard.ShardForWord("term", shard.ShardCount)

	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{
		"--datadir", dir,
		"--shards", itoa(targetShard),
		"--apply-shard-delta", deltaPath,
		"--shard-delta-id", itoa(targetShard),
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, errOut.String())
	}
	want := []byte("shard " + itoa(targetShard) + ": terms=1 postings=1")
	if !bytes.Contains(out.Bytes(), want) {
		t.Fatalf("expected %q in output, got %q", want, out.String())
	}
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func TestRunDatadirCreateFailsWhenDatadirIsFile(t *testing.T) {
	tmp := t.TempDir()
	datadir := filepath.Join(tmp, "notadir")
	if err := os.WriteFile(datadir, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{"--datadir", datadir}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestMainExitCodeIs0OnDryRun(t *testing.T) {
	if os.Getenv("MESHNODE_CHILD") == "1" {
		datadir := t.TempDir()
		os.Args = []string{"meshnode", "--dry-run", "--datadir", datadir}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainExitCodeIs0OnDryRun")
	cmd.Env = append(os.Environ(), "MESHNODE_CHILD=1")
	err := cmd.Run()
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if ok {
			t.Fatalf("exit code=%d, want 0 (stderr=%s)", ee.ExitCode(), string(ee.Stderr))
		}
		t.Fatalf("unexpected error: %v", err)
	}
}
