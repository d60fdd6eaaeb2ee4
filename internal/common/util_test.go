package common

import (
	"bytes"
	"testing"
)

func TestGenerateRandByteArray_Length(t *testing.T) {
	for _, n := range []int{0, 1, 16, 32} {
		if got := GenerateRandByteArray(n); len(got) != n {
			t.Fatalf("GenerateRandByteArray(%d): got len %d", n, len(got))
		}
	}
}

func TestGenerateRandByteArray_Differs(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	if bytes.Equal(a, b) {
		t.Fatal("two 32-byte random buffers are identical")
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	WipeByteArray(buf)
	if !bytes.Equal(buf, []byte{0, 0, 0, 0}) {
		t.Fatalf("buffer not wiped: %v", buf)
	}

	WipeByteArray(nil)
}
