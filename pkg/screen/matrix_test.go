package screen

import "testing"

func TestFlagMatrixRows(t *testing.T) {
	m := NewFlagMatrix(3, 2)
	r1 := m.claim(1)
	r1.reset()
	r1.set(1)
	r1.finish(Screened)

	if m.At(1, 0) || !m.At(1, 1) || !m.Any(1) {
		t.Fatalf("row 1 not written as expected")
	}
	if m.Any(0) || m.Any(2) {
		t.Fatal("neighbouring rows were written")
	}
	if m.Status(1) != Screened || m.Status(0) != Pending {
		t.Fatalf("unexpected statuses %v %v", m.Status(1), m.Status(0))
	}

	// reset clears a previously written row
	r1.reset()
	if m.Any(1) || m.Status(1) != Pending {
		t.Fatal("reset left the row dirty")
	}
}

func TestFlagMatrixRowClaimedOnce(t *testing.T) {
	m := NewFlagMatrix(2, 1)
	m.claim(0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on the second claim of a row")
		}
	}()
	m.claim(0)
}

func TestFlagMatrixRowCannotGrow(t *testing.T) {
	m := NewFlagMatrix(2, 2)
	r := m.claim(0)
	if cap(r.cells) != 2 {
		t.Fatalf("row handle can reach past its row: cap %d", cap(r.cells))
	}
}
