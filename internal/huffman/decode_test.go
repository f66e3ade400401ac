package huffman

import (
	"bytes"
	"testing"

	"github.com/deepteams/bmp/internal/bitio"
)

// bitsToBytes packs a string of '0'/'1' characters MSB-first, padding the
// final byte with zeros.
func bitsToBytes(t *testing.T, s string) []byte {
	t.Helper()
	out := make([]byte, (len(s)+7)/8)
	for i, c := range s {
		if c == '1' {
			out[i/8] |= 1 << uint(7-i%8)
		} else if c != '0' {
			t.Fatalf("bad bit char %q", c)
		}
	}
	return out
}

func TestDecode_SingleRow(t *testing.T) {
	// White 4 (1011), black 3 (10), white 3 (1000).
	stream := bitsToBytes(t, "1011"+"10"+"1000")
	got := Decode(stream, 10, 1)
	want := []byte{0, 0, 0, 0, 1, 1, 1, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_MakeUpPlusTerminating(t *testing.T) {
	// White 67 = make-up 64 (11011) + terminating 3 (1000), then black 1 (010).
	stream := bitsToBytes(t, "11011"+"1000"+"010")
	got := Decode(stream, 68, 1)
	for i := 0; i < 67; i++ {
		if got[i] != 0 {
			t.Fatalf("pixel %d = %d, want white", i, got[i])
		}
	}
	if got[67] != 1 {
		t.Errorf("pixel 67 = %d, want black", got[67])
	}
}

func TestDecode_LeadingEOL(t *testing.T) {
	// An EOL before the first row is skipped.
	stream := bitsToBytes(t, "000000000001"+"1011"+"10"+"1000")
	got := Decode(stream, 10, 1)
	want := []byte{0, 0, 0, 0, 1, 1, 1, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_TwoRowsWithEOL(t *testing.T) {
	// Row 0: white 2 (0111), black 2 (11). EOL.
	// Second row starts white: white 0 (00110101), black 4 (011).
	stream := bitsToBytes(t, "0111"+"11"+"000000000001"+"00110101"+"011")
	got := Decode(stream, 4, 2)
	want := []byte{
		0, 0, 1, 1,
		1, 1, 1, 1,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_RunClampedToWidth(t *testing.T) {
	// A 64+3 white run against a width-5 row must not write past the row.
	stream := bitsToBytes(t, "11011"+"1000")
	got := Decode(stream, 5, 1)
	want := []byte{0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_TruncatedStream(t *testing.T) {
	// Rows the stream does not reach stay zero (white).
	stream := bitsToBytes(t, "1011"+"10"+"1000")
	got := Decode(stream, 10, 3)
	if len(got) != 30 {
		t.Fatalf("length = %d, want 30", len(got))
	}
	for i := 10; i < 30; i++ {
		if got[i] != 0 {
			t.Errorf("pixel %d = %d, want 0", i, got[i])
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	got := Decode(nil, 3, 2)
	if !bytes.Equal(got, make([]byte, 6)) {
		t.Errorf("Decode(nil) = %v, want zeros", got)
	}
}

func TestReadCode_RewindOnMismatch(t *testing.T) {
	// No black code has seven leading zeros; the walker must restore the
	// reader position after the dead end.
	r := bitio.NewReader(bitsToBytes(t, "0000000000000000"))
	r.Skip(2)
	if _, ok := readCode(r, blackTrie); ok {
		t.Fatal("expected mismatch")
	}
	if r.Pos() != 2 {
		t.Errorf("pos after failed walk = %d, want 2", r.Pos())
	}
}

func TestTrieTables_Complete(t *testing.T) {
	// Every code in both tables must resolve to its own run length.
	for _, tt := range []struct {
		codes []code
		root  *trieNode
	}{
		{whiteCodes, whiteTrie},
		{blackCodes, blackTrie},
	} {
		for _, c := range tt.codes {
			n := tt.root
			for i := int(c.length) - 1; i >= 0; i-- {
				n = n.child[(c.bits>>uint(i))&1]
				if n == nil {
					t.Fatalf("code for run %d: dead end", c.run)
				}
			}
			if !n.leaf || n.run != int(c.run) {
				t.Errorf("code for run %d resolves to %d (leaf=%v)", c.run, n.run, n.leaf)
			}
		}
	}
}
