package macross

import (
	"errors"
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

func frameFor(t *testing.T, s *MACross, closes []float64) *strategy.Frame {
	t.Helper()
	frame, err := s.ComputeIndicators(barsFromCloses(closes))
	if err != nil {
		t.Fatalf("ComputeIndicators: %v", err)
	}
	return frame
}

func longPosition(t *testing.T, entry string) *account.Position {
	t.Helper()
	pos, err := account.NewPosition("BTCUSDT", account.PositionLong,
		decimal.RequireFromString("1"), decimal.RequireFromString(entry), 1, time.Now())
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	return pos
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params strategy.Params
	}{
		{"fast not positive", strategy.Params{"fast_period": 0}},
		{"fast >= slow", strategy.Params{"fast_period": 200, "slow_period": 200}},
		{"bad ma_type", strategy.Params{"ma_type": "wma"}},
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

func TestNew_Defaults(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Name() != "macross" {
		t.Errorf("Name = %q", s.Name())
	}
	if s.WarmUp() != 200 {
		t.Errorf("WarmUp = %d, want 200 (slow period)", s.WarmUp())
	}
}

func TestShouldEnter_GoldenCross(t *testing.T) {
	s, err := New(strategy.Params{"fast_period": 2, "slow_period": 3, "ma_type": "sma"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// SMA2 jumps over SMA3 at the last bar.
	closes := []float64{10, 9, 8, 7, 20}
	frame := frameFor(t, s, closes)

	if sig := s.ShouldEnter(frame.Row(3)); sig != nil {
		t.Errorf("unexpected entry before the cross: %+v", sig)
	}

	sig := s.ShouldEnter(frame.Row(4))
	if sig == nil {
		t.Fatal("expected a golden cross entry")
	}
	if sig.Type != core.SignalBuy {
		t.Errorf("Type = %v, want BUY", sig.Type)
	}
	if sig.Strength != core.StrengthStrong {
		t.Errorf("Strength = %v, want STRONG", sig.Strength)
	}
	if sig.Confidence < 0.7 || sig.Confidence > 0.95 {
		t.Errorf("Confidence = %v, want within [0.7, 0.95]", sig.Confidence)
	}
}

func TestShouldEnter_NoCrossNoEntry(t *testing.T) {
	s, _ := New(strategy.Params{"fast_period": 2, "slow_period": 3, "ma_type": "sma"})

	// Steady rise: the fast average stays above the slow one, no fresh cross
	// after the averages are first defined.
	closes := []float64{10, 11, 12, 13, 14, 15}
	frame := frameFor(t, s, closes)

	for i := 4; i < len(closes); i++ {
		if sig := s.ShouldEnter(frame.Row(i)); sig != nil {
			t.Errorf("row %d: unexpected entry without a cross", i)
		}
	}
}

func TestShouldEnter_EnterOnStart(t *testing.T) {
	s, _ := New(strategy.Params{
		"fast_period": 2, "slow_period": 3, "ma_type": "sma", "enter_on_start": true,
	})

	closes := []float64{10, 11, 12, 13, 14}
	frame := frameFor(t, s, closes)

	sig := s.ShouldEnter(frame.Row(s.WarmUp()))
	if sig == nil {
		t.Fatal("expected an initial entry at the first tradeable bar")
	}
	if sig.Strength != core.StrengthStrong || sig.Confidence != 0.9 {
		t.Errorf("got strength %v confidence %v", sig.Strength, sig.Confidence)
	}

	if sig := s.ShouldEnter(frame.Row(s.WarmUp() + 1)); sig != nil {
		t.Error("initial entry must fire only once")
	}
}

func TestShouldExit_DeathCross(t *testing.T) {
	s, _ := New(strategy.Params{"fast_period": 2, "slow_period": 3, "ma_type": "sma"})

	// SMA2 drops under SMA3 at the last bar.
	closes := []float64{10, 11, 12, 13, 2}
	frame := frameFor(t, s, closes)
	pos := longPosition(t, "12")

	if sig := s.ShouldExit(frame.Row(3), pos); sig != nil {
		t.Errorf("unexpected exit before the cross: %+v", sig)
	}

	sig := s.ShouldExit(frame.Row(4), pos)
	if sig == nil {
		t.Fatal("expected a death cross exit")
	}
	if sig.Type != core.SignalSell {
		t.Errorf("Type = %v, want SELL", sig.Type)
	}
}

func TestShouldExit_NoCrossHolds(t *testing.T) {
	s, _ := New(strategy.Params{"fast_period": 2, "slow_period": 3, "ma_type": "sma"})

	closes := []float64{10, 11, 12, 13, 14}
	frame := frameFor(t, s, closes)
	pos := longPosition(t, "10")

	if sig := s.ShouldExit(frame.Row(4), pos); sig != nil {
		t.Errorf("unexpected exit on a steady rise: %+v", sig)
	}
}
