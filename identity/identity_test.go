package identity

import "testing"

func TestGenerateSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	msg := []byte("contract-trust v1")
	sig := Sign(kp.Secret, msg)

	if !Verify(kp.Public, msg, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	sig := Sign(kp.Secret, []byte("original"))
	if Verify(kp.Public, []byte("tampered"), sig) {
		t.Fatal("expected verification to fail for a tampered message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	kp2, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	msg := []byte("hello")
	sig := Sign(kp1.Secret, msg)
	if Verify(kp2.Public, msg, sig) {
		t.Fatal("expected verification against the wrong public key to fail")
	}
}

func TestGenerateKeyPairProducesDistinctKeys(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if a.Public == b.Public {
		t.Fatal("expected two generated keypairs to have distinct public keys")
	}
}
