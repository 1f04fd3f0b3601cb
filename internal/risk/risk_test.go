package risk

import (
	"testing"

	"github.com/yepmem/core/internal/store"
)

func TestComputeSimpleWellDocumentedLowRisk(t *testing.T) {
	row := &store.CodeSymbolRow{
		Symbol:         "Tiny",
		Body:           "func Tiny() {}",
		Summary:        "Tiny does nothing.",
		GitChangeCount: 1,
		GitAuthorCount: 1,
	}
	score := Compute(row)
	if score.Level != LevelLow {
		t.Fatalf("expected low risk, got %v (total=%v)", score.Level, score.Total)
	}
}

func TestComputeComplexChurnyUndocumentedHighRisk(t *testing.T) {
	var body string
	for i := 0; i < 60; i++ {
		body += "if x { } else if y { } for {} switch {}\n"
	}
	row := &store.CodeSymbolRow{
		Symbol:         "Monster",
		Body:           body,
		Summary:        "",
		GitChangeCount: 50,
		GitAuthorCount: 8,
	}
	score := Compute(row)
	if score.Level != LevelCritical {
		t.Fatalf("expected critical risk, got %v (total=%v)", score.Level, score.Total)
	}
}

func TestComputeTestCoverageAlwaysDefaultsToHalf(t *testing.T) {
	row := &store.CodeSymbolRow{Symbol: "S", Body: "func S() {}", Summary: "doc"}
	score := Compute(row)
	if score.Sub.TestCoverage != 0.5 {
		t.Fatalf("expected test coverage sub-score to default to 0.5, got %v", score.Sub.TestCoverage)
	}
}

func TestLevelThresholds(t *testing.T) {
	cases := []struct {
		total float64
		want  Level
	}{
		{0, LevelLow}, {39.9, LevelLow},
		{40, LevelMedium}, {59.9, LevelMedium},
		{60, LevelHigh}, {79.9, LevelHigh},
		{80, LevelCritical}, {100, LevelCritical},
	}
	for _, c := range cases {
		if got := levelFor(c.total); got != c.want {
			t.Fatalf("levelFor(%v) = %v, want %v", c.total, got, c.want)
		}
	}
}
