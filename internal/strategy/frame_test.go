package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/marlinquant/marlin/internal/core"
)

func testBars(n int) []core.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, n)
	for i := range bars {
		bars[i] = core.Bar{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * time.Hour),
			Close:  float64(100 + i),
		}
	}
	return bars
}

func TestFrame_SetColumnLengthMismatch(t *testing.T) {
	f := NewFrame(testBars(5))
	err := f.SetColumn("sma", []float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected error on length mismatch")
	}
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRow_Values(t *testing.T) {
	f := NewFrame(testBars(3))
	if err := f.SetColumn("ind", []float64{math.NaN(), 10, 20}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}

	row := f.Row(2)
	if got := row.Bar().Close; got != 102 {
		t.Errorf("Bar().Close = %v, want 102", got)
	}
	if got := row.Value("ind"); got != 20 {
		t.Errorf("Value(ind) = %v, want 20", got)
	}
	if got := row.Prev("ind"); got != 10 {
		t.Errorf("Prev(ind) = %v, want 10", got)
	}
}

func TestRow_MissingColumnIsNaN(t *testing.T) {
	f := NewFrame(testBars(2))
	row := f.Row(1)
	if !math.IsNaN(row.Value("nope")) {
		t.Error("Value of missing column should be NaN")
	}
	if !math.IsNaN(row.Prev("nope")) {
		t.Error("Prev of missing column should be NaN")
	}
}

func TestRow_PrevAtZeroIsNaN(t *testing.T) {
	f := NewFrame(testBars(2))
	f.SetColumn("ind", []float64{1, 2})
	if !math.IsNaN(f.Row(0).Prev("ind")) {
		t.Error("Prev at index 0 should be NaN")
	}
}

func TestRow_Defined(t *testing.T) {
	f := NewFrame(testBars(3))
	f.SetColumn("a", []float64{math.NaN(), 1, 2})
	f.SetColumn("b", []float64{math.NaN(), math.NaN(), 3})

	if f.Row(1).Defined("a", "b") {
		t.Error("row 1 should not be fully defined")
	}
	if !f.Row(2).Defined("a", "b") {
		t.Error("row 2 should be fully defined")
	}
}
