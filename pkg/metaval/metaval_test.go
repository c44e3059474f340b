package metaval

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rsms/go-bits"
)

func mkReserve(fill byte) Reserve {
	var r Reserve
	for i := range r {
		r[i] = fill
	}
	return r
}

// S1 — String encode: type=0x01, "hi", zero reserve, ctime=10, etime=0 -> 35 bytes.
func TestStringEncodeScenarioS1(t *testing.T) {
	got := EncodeString(Type(0x01), []byte("hi"), Reserve{}, 10, 0)
	want := append([]byte{0x01, 'h', 'i'}, make([]byte, 16)...)
	want = append(want, 0x0A, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 0, 0, 0, 0, 0, 0, 0, 0)
	if len(got) != 35 {
		t.Fatalf("expected 35 bytes, got %d", len(got))
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoding mismatch:\ngot  %x\nwant %x", got, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	reserve := mkReserve(0xAB)
	enc := EncodeString(TypeString, []byte("hello world"), reserve, 123, 456)
	m, err := ParseString(enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Type != TypeString || m.Ctime != 123 || m.Etime != 456 {
		t.Fatalf("field mismatch: %+v", m)
	}
	if !bytes.Equal(m.Value, []byte("hello world")) {
		t.Fatalf("value mismatch: %q", m.Value)
	}
	if m.Reserve != reserve {
		t.Fatalf("reserve mismatch")
	}
}

func TestStringCorruptMeta(t *testing.T) {
	_, err := ParseString([]byte{0x01, 0x02})
	if err != ErrCorruptMeta {
		t.Fatalf("expected ErrCorruptMeta, got %v", err)
	}
}

// S2 — Container round-trip: type=0x02, count=3, value="", version=100, ctime=5, etime=0.
func TestContainerRoundTripScenarioS2(t *testing.T) {
	enc := EncodeContainer(Type(0x02), 3, nil, 100, Reserve{}, 5, 0)
	m, err := ParseContainer(enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ContainerMeta{
		Type:    Type(0x02),
		Count:   3,
		Value:   m.Value, // compared separately (nil vs empty slice noise)
		Version: 100,
		Reserve: Reserve{},
		Ctime:   5,
		Etime:   0,
	}
	m.raw = nil
	want.raw = nil
	if diff := cmp.Diff(want, m, cmp.AllowUnexported(ContainerMeta{})); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if len(m.Value) != 0 {
		t.Fatalf("expected empty user_value, got %q", m.Value)
	}
}

// Property 1: round-trip for arbitrary valid fields.
func TestContainerRoundTripProperty(t *testing.T) {
	cases := []struct {
		typ     Type
		count   int32
		value   []byte
		version uint64
		ctime   uint64
		etime   uint64
	}{
		{TypeHash, 0, nil, 1, 0, 0},
		{TypeSet, 1, []byte("x"), 42, 10, 20},
		{TypeZSet, MaxCount, []byte("a long user value payload"), 1 << 40, 1, 0},
	}
	for _, c := range cases {
		reserve := mkReserve(0x7A)
		enc := EncodeContainer(c.typ, c.count, c.value, c.version, reserve, c.ctime, c.etime)
		got, err := ParseContainer(enc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Type != c.typ || got.Count != c.count || got.Version != c.version ||
			got.Ctime != c.ctime || got.Etime != c.etime || got.Reserve != reserve {
			t.Fatalf("field-wise mismatch for %+v: got %+v", c, got)
		}
		if !bytes.Equal(got.Value, c.value) {
			t.Fatalf("value mismatch for %+v: got %q", c, got.Value)
		}
	}
}

// Property 2: suffix alignment — user_value length == len(v) - 1 - 4 - 40.
func TestContainerSuffixAlignment(t *testing.T) {
	value := []byte("payload-of-arbitrary-length")
	enc := EncodeContainer(TypeHash, 5, value, 1, Reserve{}, 0, 0)
	m, err := ParseContainer(enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := len(enc) - 1 - 4 - 40
	if len(m.Value) != want {
		t.Fatalf("expected user_value length %d, got %d", want, len(m.Value))
	}
}

func TestContainerCorruptMetaShortBuffer(t *testing.T) {
	// too short even for type+count
	if _, err := ParseContainer([]byte{0x01}); err != ErrCorruptMeta {
		t.Fatalf("expected ErrCorruptMeta, got %v", err)
	}
	// type+count present but suffix missing (open question (b): must not read past buffer)
	if _, err := ParseContainer([]byte{0x01, 0, 0, 0, 0}); err != ErrCorruptMeta {
		t.Fatalf("expected ErrCorruptMeta, got %v", err)
	}
}

// Property 5: CheckModifyCount bounds.
func TestCheckModifyCountBounds(t *testing.T) {
	cases := []struct {
		count int32
		delta int32
		want  bool
	}{
		{0, -1, false},
		{0, 1, true},
		{MaxCount, 1, false},
		{MaxCount, 0, true},
		{MaxCount - 1, 1, true},
	}
	for _, c := range cases {
		m := ContainerMeta{Count: c.count}
		if got := m.CheckModifyCount(c.delta); got != c.want {
			t.Fatalf("CheckModifyCount(count=%d, delta=%d) = %v, want %v", c.count, c.delta, got, c.want)
		}
	}
}

func TestModifyCountRejectsOutOfRange(t *testing.T) {
	enc := EncodeContainer(TypeSet, 0, nil, 1, Reserve{}, 0, 0)
	m, err := ParseContainer(enc)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ModifyCount(-1); err != ErrCountOutOfRange {
		t.Fatalf("expected ErrCountOutOfRange, got %v", err)
	}
	if m.Count != 0 {
		t.Fatalf("count must be unchanged after rejected mutation, got %d", m.Count)
	}
	if err := m.ModifyCount(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Count != 5 {
		t.Fatalf("expected count 5, got %d", m.Count)
	}
}

// Property 6 / S3 — staleness.
func TestIsStaleScenarioS3(t *testing.T) {
	cases := []struct {
		etime, now uint64
		wantValid  bool
	}{
		{50, 49, true},
		{50, 50, false},
		{50, 51, false},
		{0, 1_000_000_000, true},
	}
	for _, c := range cases {
		m := StringMeta{Etime: c.etime}
		if got := m.IsValid(c.now); got != c.wantValid {
			t.Fatalf("IsValid(etime=%d, now=%d) = %v, want %v", c.etime, c.now, got, c.wantValid)
		}
	}
}

func TestContainerIsValidRequiresNonzeroCount(t *testing.T) {
	m := ContainerMeta{Count: 0, Etime: 0}
	if m.IsValid(100) {
		t.Fatalf("container with count==0 must not be valid")
	}
	m.Count = 1
	if !m.IsValid(100) {
		t.Fatalf("container with count>0 and no expiry must be valid")
	}
}

func TestIsTypeRejectsMismatch(t *testing.T) {
	if !IsType([]byte{byte(TypeHash)}, TypeHash) {
		t.Fatalf("expected type match")
	}
	if IsType([]byte{byte(TypeHash)}, TypeSet) {
		t.Fatalf("expected type mismatch")
	}
	if IsType(nil, TypeHash) {
		t.Fatalf("expected false for empty buffer")
	}
}

func TestInitialMetaValue(t *testing.T) {
	enc := EncodeContainer(TypeZSet, 9, []byte("v"), 0, mkReserve(1), 99, 99)
	m, err := ParseContainer(enc)
	if err != nil {
		t.Fatal(err)
	}
	v := m.InitialMetaValue(func(prev uint64) uint64 { return prev + 1000 })
	if v != 1000 {
		t.Fatalf("expected version 1000, got %d", v)
	}
	if m.Count != 0 || m.Etime != 0 || m.Ctime != 0 {
		t.Fatalf("expected reset fields, got %+v", m)
	}
	reparsed, err := ParseContainer(m.raw)
	if err != nil {
		t.Fatal(err)
	}
	if reparsed.Version != 1000 || reparsed.Count != 0 {
		t.Fatalf("in-place write not observed on reparse: %+v", reparsed)
	}
}

// sanity check on go-bits usage mirroring fieldset.go's FieldSet.Len()
func TestReservePopcountSanity(t *testing.T) {
	r := mkReserve(0xFF)
	var word uint64
	for i := 0; i < 8; i++ {
		word |= uint64(r[i]) << (8 * i)
	}
	if bits.PopcountUint64(word) != 64 {
		t.Fatalf("expected all bits set in first 8 reserve bytes")
	}
}
