package migrations

import "testing"

func TestNames_SortedSQLOnly(t *testing.T) {
	names, err := Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected at least one migration")
	}
	for i, n := range names {
		if n[len(n)-4:] != ".sql" {
			t.Fatalf("unexpected file %q", n)
		}
		if i > 0 && names[i-1] >= n {
			t.Fatalf("migrations not sorted: %v", names)
		}
	}
}
