package meshcore

import (
	"reflect"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type sample struct {
		A uint64 `cbor:"1,keyasint"`
		B []byte `cbor:"2,keyasint"`
	}
	in := sample{A: 42, B: []byte("hello")}

	encoded, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out sample
	if err := Unmarshal(encoded, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestMarshalIsCanonicalAndDeterministic(t *testing.T) {
	type sample struct {
		A uint64 `cbor:"1,keyasint"`
		B uint64 `cbor:"2,keyasint"`
	}
	first, err := Marshal(sample{A: 1, B: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(sample{A: 1, B: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical encodings for identical values")
	}
}
