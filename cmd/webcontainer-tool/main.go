// Command webcontainer-tool manages Ed25519 publisher keys and signs web
// container payloads for the publication contract (spec §5/§6): "generate"
// creates a keypair and saves it to a local key file; "sign" signs a
// compressed webapp payload under a version number and writes a ready-to-use
// publication state frame plus the contract parameters (the 32-byte
// verifying key) that validate it.
//
// Grounded on node/keymgr.go's subcommand-dispatch and hex-encoded JSON
// keystore idiom.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"searchmesh.dev/node/identity"
	"searchmesh.dev/node/publication"
)

// KeyFileV1 is the on-disk keypair format this tool reads and writes.
type KeyFileV1 struct {
	Version   string `json:"version"` // "WCKv1"
	SecretHex string `json:"secret_hex"`
	PublicHex string `json:"public_hex"`
}

const keyFileVersion = "WCKv1"

func defaultKeysPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find config directory: %w", err)
	}
	return filepath.Join(dir, "searchmesh", "web-container-keys.json"), nil
}

func generateKeys(path string) error {
	kp, err := identity.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	kf := KeyFileV1{
		Version:   keyFileVersion,
		SecretHex: hex.EncodeToString(kp.Secret[:]),
		PublicHex: hex.EncodeToString(kp.Public[:]),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}

func readSigningKey(path string) (identity.KeyPair, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return identity.KeyPair{}, err
	}
	var kf KeyFileV1
	if err := json.Unmarshal(raw, &kf); err != nil {
		return identity.KeyPair{}, fmt.Errorf("decode key file: %w", err)
	}
	if kf.Version != keyFileVersion {
		return identity.KeyPair{}, fmt.Errorf("unsupported key file version: %q", kf.Version)
	}
	secret, err := hexDecodeFixed(kf.SecretHex, identity.SecretKeySize)
	if err != nil {
		return identity.KeyPair{}, fmt.Errorf("secret_hex: %w", err)
	}
	public, err := hexDecodeFixed(kf.PublicHex, identity.PublicKeySize)
	if err != nil {
		return identity.KeyPair{}, fmt.Errorf("public_hex: %w", err)
	}
	var kp identity.KeyPair
	copy(kp.Secret[:], secret)
	copy(kp.Public[:], public)
	return kp, nil
}

func hexDecodeFixed(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("must be %d bytes (got %d)", n, len(b))
	}
	return b, nil
}

func signWebapp(input, output, parameters string, version uint32, keyFile string) error {
	kp, err := readSigningKey(keyFile)
	if err != nil {
		return err
	}
	web, err := os.ReadFile(filepath.Clean(input))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	state, err := publication.BuildState(kp.Secret, version, web)
	if err != nil {
		return fmt.Errorf("build publication state: %w", err)
	}
	if err := os.WriteFile(output, state, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("State written to: %s (%d bytes)\n", output, len(state))

	if err := os.WriteFile(parameters, kp.Public[:], 0o600); err != nil {
		return fmt.Errorf("write parameters: %w", err)
	}
	fmt.Printf("Parameters written to: %s (%d bytes)\n", parameters, len(kp.Public))
	return nil
}

func cmdGenerate(argv []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	output := fs.String("output", "", "output key file (default: OS config dir)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	path := *output
	if path == "" {
		p, err := defaultKeysPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate error:", err)
			return 1
		}
		path = p
	}
	if err := generateKeys(path); err != nil {
		fmt.Fprintln(os.Stderr, "generate error:", err)
		return 1
	}
	fmt.Printf("Keys written to: %s\n", path)
	return 0
}

func cmdSign(argv []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	input := fs.String("input", "", "input compressed webapp file (e.g. webapp.tar.xz)")
	output := fs.String("output", "", "output file for the signed publication state")
	parameters := fs.String("parameters", "", "output file for contract parameters (32-byte verifying key)")
	version := fs.Uint("version", 0, "version number (must be higher than previously published)")
	keyFile := fs.String("key-file", "", "key file to use (default: OS config dir)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *input == "" || *output == "" || *parameters == "" || *version == 0 {
		fmt.Fprintln(os.Stderr, "sign requires --input --output --parameters --version")
		return 2
	}
	path := *keyFile
	if path == "" {
		p, err := defaultKeysPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "sign error:", err)
			return 1
		}
		path = p
	}
	if err := signWebapp(*input, *output, *parameters, uint32(*version), path); err != nil {
		fmt.Fprintln(os.Stderr, "sign error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: webcontainer-tool <generate|sign> [flags]")
		return 2
	}
	switch args[0] {
	case "generate":
		return cmdGenerate(args[1:])
	case "sign":
		return cmdSign(args[1:])
	default:
		fmt.Fprintln(os.Stderr, "unknown subcommand:", args[0])
		return 2
	}
}
