package bitpack

import (
	"errors"
	"testing"
)

func TestPackPadding(t *testing.T) {
	tests := []struct {
		codes   []string
		want    []byte
		padding int
	}{
		{nil, nil, 0},
		{[]string{"0"}, []byte{0x00}, 7},
		{[]string{"1"}, []byte{0x80}, 7},
		{[]string{"1010", "1010"}, []byte{0xAA}, 0},
		{[]string{"11111111", "1"}, []byte{0xFF, 0x80}, 7},
		{[]string{"110", "01", "111"}, []byte{0xCF}, 0},
		{[]string{"1", "0", "1"}, []byte{0xA0}, 5},
	}

	for _, tt := range tests {
		data, padding, err := Pack(tt.codes)
		if err != nil {
			t.Fatalf("Pack(%v): %v", tt.codes, err)
		}
		if padding < 0 || padding > MaxPadding {
			t.Errorf("Pack(%v): padding %d out of range", tt.codes, padding)
		}
		if padding != tt.padding {
			t.Errorf("Pack(%v): expected padding %d, got %d", tt.codes, tt.padding, padding)
		}
		if string(data) != string(tt.want) {
			t.Errorf("Pack(%v): expected %08b, got %08b", tt.codes, tt.want, data)
		}
	}
}

func TestPackUnpackBits(t *testing.T) {
	codes := []string{"0", "10", "110", "1110", "11110", "0", "1"}
	data, padding, err := Pack(codes)
	if err != nil {
		t.Fatal(err)
	}

	r, err := Unpack(data, padding)
	if err != nil {
		t.Fatal(err)
	}

	var got []byte
	for {
		bit, ok := r.ReadBit()
		if !ok {
			break
		}
		got = append(got, '0'+bit)
	}

	var want string
	for _, c := range codes {
		want += c
	}
	if string(got) != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUnpackPaddingRange(t *testing.T) {
	for _, padding := range []int{-1, 8, 9, 100} {
		if _, err := Unpack([]byte{0xFF}, padding); !errors.Is(err, ErrPadding) {
			t.Errorf("Unpack padding %d: expected ErrPadding, got %v", padding, err)
		}
	}
	for padding := 0; padding <= MaxPadding; padding++ {
		r, err := Unpack([]byte{0xFF}, padding)
		if err != nil {
			t.Errorf("Unpack padding %d: %v", padding, err)
			continue
		}
		if r.Len() != 8-padding {
			t.Errorf("Unpack padding %d: expected %d bits, got %d", padding, 8-padding, r.Len())
		}
	}
	if _, err := Unpack(nil, 3); !errors.Is(err, ErrPadding) {
		t.Errorf("Unpack empty buffer: expected ErrPadding, got %v", err)
	}
}

func TestWriteCodeRejectsGarbage(t *testing.T) {
	if _, _, err := Pack([]string{"01", "0x1"}); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}

func TestReadBitsAndBytes(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0x5, 3)
	w.WriteBits(0xAB, 8)
	data, padding := w.Bytes()
	if padding != 5 {
		t.Fatalf("expected padding 5, got %d", padding)
	}

	r, err := Unpack(data, padding)
	if err != nil {
		t.Fatal(err)
	}
	v, err := r.ReadBits(3)
	if err != nil || v != 0x5 {
		t.Fatalf("ReadBits(3): expected 5, got %d (%v)", v, err)
	}
	b, err := r.ReadByte()
	if err != nil || b != 0xAB {
		t.Fatalf("ReadByte: expected 0xAB, got %#x (%v)", b, err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated past the end, got %v", err)
	}
}
