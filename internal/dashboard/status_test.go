package dashboard

import "testing"

func TestStatusOf(t *testing.T) {
	cases := []struct {
		score float64
		want  Status
	}{
		{0, StatusSafe},
		{40, StatusSafe},
		{40.5, StatusReview},
		{41, StatusReview},
		{70, StatusReview},
		{71, StatusSuspicious},
		{100, StatusSuspicious},
	}

	for _, tc := range cases {
		if got := StatusOf(tc.score); got != tc.want {
			t.Fatalf("StatusOf(%v) = %s; want %s", tc.score, got, tc.want)
		}
	}
}

func TestActionOf(t *testing.T) {
	cases := []struct {
		score float64
		want  Action
	}{
		{10, ActionRoutine},
		{40, ActionRoutine},
		{41, ActionVerifyDetails},
		{70, ActionVerifyDetails},
		{71, ActionImmediateReview},
	}

	for _, tc := range cases {
		if got := ActionOf(tc.score); got != tc.want {
			t.Fatalf("ActionOf(%v) = %s; want %s", tc.score, got, tc.want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	if StatusSafe.Class() != "success" || StatusReview.Class() != "warning" || StatusSuspicious.Class() != "danger" {
		t.Fatalf("unexpected status classes")
	}
}
