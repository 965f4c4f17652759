package dashboard

import "testing"

func TestSortState_Toggle(t *testing.T) {
	var s SortState
	if s.Spec().Active() {
		t.Fatalf("zero state should be unsorted")
	}

	steps := []struct {
		click SortKey
		want  SortSpec
	}{
		{SortByAmount, SortSpec{Key: SortByAmount, Direction: Asc}},
		{SortByAmount, SortSpec{Key: SortByAmount, Direction: Desc}},
		{SortByAmount, SortSpec{Key: SortByAmount, Direction: Asc}},
		{SortByAmount, SortSpec{Key: SortByAmount, Direction: Desc}},
		{SortByCity, SortSpec{Key: SortByCity, Direction: Asc}},
		{SortByAmount, SortSpec{Key: SortByAmount, Direction: Asc}},
	}

	for i, step := range steps {
		if got := s.Click(step.click); got != step.want {
			t.Fatalf("step %d: got %+v; want %+v", i, got, step.want)
		}
	}
}

func TestSortState_NextDoesNotMutate(t *testing.T) {
	var s SortState
	s.Click(SortByID)
	if got := s.Next(SortByID); got.Direction != Desc {
		t.Fatalf("expected next to be desc, got %+v", got)
	}
	if s.Spec().Direction != Asc {
		t.Fatalf("Next changed the state")
	}
}

func TestSortState_Reset(t *testing.T) {
	var s SortState
	s.Click(SortByID)
	s.Reset()
	if s.Spec().Active() {
		t.Fatalf("expected unsorted after reset")
	}
}
