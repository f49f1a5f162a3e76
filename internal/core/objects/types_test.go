package objects

import (
	"errors"
	"testing"
)

func TestObjectInfoRoundTrip(t *testing.T) {
	tests := []ObjectInfo{
		{Kind: KindBlob, PayloadSize: 14, Hash: HashBytes([]byte("x"))},
		{Kind: KindLargeBlob, Compressed: true, PayloadSize: 1 << 32, Hash: HashBytes([]byte("y"))},
		{Kind: KindTree, PayloadSize: 0, Hash: ObjectHash{}},
		{Kind: KindCommit, PayloadSize: 123, Hash: HashBytes([]byte("z"))},
	}

	for _, info := range tests {
		data := info.Marshal()
		if len(data) != InfoSize {
			t.Fatalf("Marshal() = %d bytes, want %d", len(data), InfoSize)
		}

		got, err := UnmarshalInfo(data)
		if err != nil {
			t.Fatalf("UnmarshalInfo() error = %v", err)
		}
		if got != info {
			t.Errorf("round-trip = %+v, want %+v", got, info)
		}
	}
}

func TestUnmarshalInfoRejects(t *testing.T) {
	if _, err := UnmarshalInfo(make([]byte, InfoSize-1)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("short info error = %v, want ErrCorrupt", err)
	}

	bad := ObjectInfo{Kind: KindBlob, PayloadSize: 1}.Marshal()
	bad[0] = 99
	if _, err := UnmarshalInfo(bad); !errors.Is(err, ErrCorrupt) {
		t.Errorf("bad kind error = %v, want ErrCorrupt", err)
	}
}

func TestNewObject(t *testing.T) {
	payload := []byte("some payload")
	obj := NewObject(KindBlob, payload)

	if obj.Info.Hash != HashBytes(payload) {
		t.Error("NewObject() hash does not match payload")
	}
	if obj.Info.PayloadSize != uint64(len(payload)) {
		t.Errorf("NewObject() size = %d, want %d", obj.Info.PayloadSize, len(payload))
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindBlob:      "blob",
		KindLargeBlob: "largeblob",
		KindTree:      "tree",
		KindCommit:    "commit",
		Kind(0):       "unknown",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %s, want %s", k, k.String(), want)
		}
	}
}
