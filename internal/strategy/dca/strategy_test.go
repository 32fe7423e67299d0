package dca

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/strategy"
)

func barsFromCloses(closes []float64) []core.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return bars
}

func frameFor(t *testing.T, d *DCA, closes []float64) *strategy.Frame {
	t.Helper()
	frame, err := d.ComputeIndicators(barsFromCloses(closes))
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	return frame
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params strategy.Params
	}{
		{"interval not positive", strategy.Params{"interval_bars": 0}},
		{"fraction above 1", strategy.Params{"base_fraction": 1.5}},
		{"moderate above severe", strategy.Params{"drawdown_moderate": 0.3, "drawdown_severe": 0.2}},
		{"vol period too short", strategy.Params{"vol_period": 1}},
		{"take profit not positive", strategy.Params{"take_profit_pct": 0.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params)
			if !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestImplementsSizer(t *testing.T) {
	var _ strategy.Sizer = (*DCA)(nil)
}

func TestShouldEnter_ScheduledCadence(t *testing.T) {
	d, err := New(strategy.Params{"interval_bars": 5, "vol_period": 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := frameFor(t, d, flatCloses(12, 100))

	sig := d.ShouldEnter(frame.Row(5))
	if sig == nil {
		t.Fatal("expected a scheduled entry on the cadence bar")
	}
	if sig.Strength != core.StrengthModerate || sig.Confidence != 0.75 {
		t.Errorf("got strength %v confidence %v, want MODERATE 0.75", sig.Strength, sig.Confidence)
	}

	if sig := d.ShouldEnter(frame.Row(6)); sig != nil {
		t.Error("unexpected entry off the cadence")
	}
}

func TestShouldEnter_CrashRebuy(t *testing.T) {
	d, _ := New(strategy.Params{"interval_bars": 5, "vol_period": 2, "crash_drawdown": 0.35})

	// 40% below the running peak at an off-cadence bar.
	closes := []float64{100, 100, 100, 60}
	frame := frameFor(t, d, closes)

	sig := d.ShouldEnter(frame.Row(3))
	if sig == nil {
		t.Fatal("expected a crash rebuy")
	}
	if sig.Strength != core.StrengthStrong || sig.Confidence != 0.9 {
		t.Errorf("got strength %v confidence %v, want STRONG 0.9", sig.Strength, sig.Confidence)
	}
}

func TestShouldExit_TakeProfit(t *testing.T) {
	d, _ := New(strategy.Params{"take_profit_pct": 25.0, "vol_period": 2})

	frame := frameFor(t, d, flatCloses(4, 130))
	pos, err := account.NewPosition("BTCUSDT", account.PositionLong,
		decimal.RequireFromString("1"), decimal.RequireFromString("100"), 1, time.Now())
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}

	pos.MarkPrice(decimal.RequireFromString("110"))
	if sig := d.ShouldExit(frame.Row(3), pos); sig != nil {
		t.Errorf("unexpected exit at +10%%: %+v", sig)
	}

	pos.MarkPrice(decimal.RequireFromString("130"))
	sig := d.ShouldExit(frame.Row(3), pos)
	if sig == nil {
		t.Fatal("expected a take-profit exit at +30%")
	}
	if sig.Type != core.SignalSell {
		t.Errorf("Type = %v, want SELL", sig.Type)
	}
}

func TestEntryFraction_ScalesWithDrawdown(t *testing.T) {
	// vol_damp 0 isolates the drawdown multiplier.
	d, _ := New(strategy.Params{
		"base_fraction": 0.1, "vol_period": 2, "vol_damp": 0.0,
		"drawdown_moderate": 0.10, "drawdown_severe": 0.25,
		"mult_moderate": 2.0, "mult_severe": 4.0,
	})

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"no drawdown", []float64{100, 100, 100}, 0.1},
		{"moderate drawdown", []float64{100, 100, 85}, 0.2},
		{"severe drawdown", []float64{100, 100, 70}, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := frameFor(t, d, tt.closes)
			got := d.EntryFraction(frame.Row(len(tt.closes) - 1))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EntryFraction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryFraction_VolatilityDamps(t *testing.T) {
	d, _ := New(strategy.Params{
		"base_fraction": 0.1, "vol_period": 3, "vol_damp": 10.0,
	})

	calm := frameFor(t, d, flatCloses(5, 100))
	choppy := frameFor(t, d, []float64{100, 120, 80, 120, 100})

	calmFraction := d.EntryFraction(calm.Row(4))
	choppyFraction := d.EntryFraction(choppy.Row(4))

	if math.Abs(calmFraction-0.1) > 1e-9 {
		t.Errorf("calm fraction = %v, want the 0.1 base", calmFraction)
	}
	if choppyFraction >= calmFraction {
		t.Errorf("choppy fraction %v should be below calm fraction %v", choppyFraction, calmFraction)
	}
}

func TestEntryFraction_CappedAtOne(t *testing.T) {
	d, _ := New(strategy.Params{
		"base_fraction": 0.5, "vol_period": 2, "vol_damp": 0.0,
		"mult_severe": 4.0,
	})

	// Severe drawdown would multiply to 2.0; the cap holds it at 1.
	frame := frameFor(t, d, []float64{100, 100, 60})
	if got := d.EntryFraction(frame.Row(2)); got != 1 {
		t.Errorf("EntryFraction = %v, want capped at 1", got)
	}
}
