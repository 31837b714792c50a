package overlay

import "testing"

const img = "data:image/png;base64,iVBORw0KGgo="

func TestAddIsIdempotentByPosition(t *testing.T) {
	s := NewStore()
	if !s.Add(img, 100, 50, 0) {
		t.Fatal("first add rejected")
	}
	if s.Add(img, 100, 50, 0) {
		t.Error("duplicate add at identical position accepted")
	}
	if s.Len() != 1 {
		t.Fatalf("got %d instances, want 1", s.Len())
	}

	// Same position on another page is a distinct instance.
	if !s.Add(img, 100, 50, 1) {
		t.Error("add on another page rejected")
	}
	// Slightly different position is a distinct instance too; dedup is exact.
	if !s.Add(img, 100.5, 50, 0) {
		t.Error("add at nearby position rejected")
	}
}

func TestMoveByIndex(t *testing.T) {
	s := NewStore()
	s.Add(img, 10, 10, 0)
	s.Add(img, 20, 20, 0)

	if !s.MoveByIndex(1, 33, 44) {
		t.Fatal("move rejected")
	}
	all := s.All()
	if all[1].X != 33 || all[1].Y != 44 {
		t.Errorf("instance 1 at (%v, %v), want (33, 44)", all[1].X, all[1].Y)
	}
	if all[0].X != 10 {
		t.Error("instance 0 moved")
	}
	if s.MoveByIndex(5, 0, 0) || s.MoveByIndex(-1, 0, 0) {
		t.Error("out-of-range move accepted")
	}
}

func TestRemoveMatching(t *testing.T) {
	s := NewStore()
	s.Add(img, 100, 100, 0)
	s.Add(img, 103, 98, 0)  // within default tolerance of (100, 100)
	s.Add(img, 100, 100, 1) // other page
	s.Add(img, 120, 100, 0) // outside tolerance

	if got := s.RemoveMatching(100, 100, 0, DefaultTolerance); got != 2 {
		t.Errorf("removed %d, want 2", got)
	}
	if s.Len() != 2 {
		t.Errorf("%d instances left, want 2", s.Len())
	}
	for _, in := range s.All() {
		if in.Page == 0 && in.X == 100 {
			t.Error("matched instance still present")
		}
	}
}

func TestRemoveForField(t *testing.T) {
	s := NewStore()
	s.AddForField(img, 10, 10, 0, "fld-1")
	s.Add(img, 50, 50, 0)

	if got := s.RemoveForField("fld-1"); got != 1 {
		t.Errorf("removed %d, want 1", got)
	}
	if got := s.RemoveForField(""); got != 0 {
		t.Errorf("empty field id removed %d", got)
	}
	if s.Len() != 1 {
		t.Errorf("%d instances left, want 1", s.Len())
	}
}

func TestListForPage(t *testing.T) {
	s := NewStore()
	s.Add(img, 1, 1, 0)
	s.Add(img, 2, 2, 2)
	s.Add(img, 3, 3, 2)

	if got := len(s.ListForPage(2)); got != 2 {
		t.Errorf("page 2: got %d, want 2", got)
	}
	if got := len(s.ListForPage(9)); got != 0 {
		t.Errorf("page 9: got %d, want 0", got)
	}
}
