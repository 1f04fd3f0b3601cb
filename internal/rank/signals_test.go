package rank

import (
	"testing"
	"time"
)

func TestExactMatchSignalEqual(t *testing.T) {
	if got := exactMatchSignal("Rename", "rename"); got != 1.0 {
		t.Fatalf("expected 1.0 for case-insensitive equality, got %v", got)
	}
}

func TestExactMatchSignalPrefix(t *testing.T) {
	if got := exactMatchSignal("RenameAll", "Rename"); got != 0.8 {
		t.Fatalf("expected 0.8 for prefix, got %v", got)
	}
}

func TestExactMatchSignalCamelInitials(t *testing.T) {
	if got := exactMatchSignal("getUserByID", "gubid"); got != 0.6 {
		t.Fatalf("expected 0.6 for camelCase initials, got %v", got)
	}
}

func TestExactMatchSignalContains(t *testing.T) {
	if got := exactMatchSignal("internalHelperWidget", "widget"); got != 0.5 {
		t.Fatalf("expected 0.5 for contains, got %v", got)
	}
}

func TestExactMatchSignalNoMatch(t *testing.T) {
	if got := exactMatchSignal("Alpha", "zzz"); got != 0 {
		t.Fatalf("expected 0 for no match, got %v", got)
	}
}

func TestExactMatchSignalEmptyQueryDefaults(t *testing.T) {
	if got := exactMatchSignal("Alpha", ""); got != 0.5 {
		t.Fatalf("expected 0.5 default with no query, got %v", got)
	}
}

func TestFreshnessSignalBuckets(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		age  time.Duration
		want float64
	}{
		{time.Hour, 1.0},
		{20 * 24 * time.Hour, 0.8},
		{60 * 24 * time.Hour, 0.5},
		{200 * 24 * time.Hour, 0.2},
	}
	for _, c := range cases {
		got := freshnessSignal(now.Add(-c.age), now)
		if got != c.want {
			t.Fatalf("freshnessSignal(age=%v) = %v, want %v", c.age, got, c.want)
		}
	}
}

func TestFreshnessSignalMissingDefaults(t *testing.T) {
	if got := freshnessSignal(time.Time{}, time.Now()); got != 0.5 {
		t.Fatalf("expected 0.5 default for zero LastModified, got %v", got)
	}
}

func TestContextSignalSameFile(t *testing.T) {
	if got := contextSignal("internal/widget.go", "internal/widget.go", ""); got != 1.0 {
		t.Fatalf("expected 1.0 for same file, got %v", got)
	}
}

func TestContextSignalSameDirectoryOnly(t *testing.T) {
	if got := contextSignal("internal/widget.go", "", "internal/"); got != 0.5 {
		t.Fatalf("expected 0.5 for directory match only, got %v", got)
	}
}

func TestContextSignalBothClampedToOne(t *testing.T) {
	if got := contextSignal("internal/widget.go", "internal/widget.go", "internal/"); got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
}

func TestContextSignalNoContextDefaults(t *testing.T) {
	if got := contextSignal("internal/widget.go", "", ""); got != 0.5 {
		t.Fatalf("expected 0.5 default with no context, got %v", got)
	}
}

func TestMinMaxNormalizeSpreadsRange(t *testing.T) {
	got := minMaxNormalize([]float64{1, 2, 3})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("minMaxNormalize mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestMinMaxNormalizeDegenerateDefaultsToHalf(t *testing.T) {
	got := minMaxNormalize([]float64{0, 0, 0})
	for i, v := range got {
		if v != 0.5 {
			t.Fatalf("expected 0.5 for degenerate batch at %d, got %v", i, v)
		}
	}
}
