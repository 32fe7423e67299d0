package core

import (
	"fmt"
	"time"
)

// Bar represents a single OHLCV candlestick for a fixed interval.
type Bar struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Time     time.Time
}

// IsValid checks if the bar has required fields.
func (b Bar) IsValid() bool {
	return b.Symbol != "" && b.Close > 0 && !b.Time.IsZero()
}

// ValidateSeries verifies that a bar series is non-empty and strictly
// ordered by timestamp with no duplicates. The simulator refuses to run
// on a series that fails this check.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return WrapError(ErrSeriesNotOrdered,
				fmt.Errorf("bar %d (%s) not after bar %d (%s)",
					i, bars[i].Time.Format(time.RFC3339),
					i-1, bars[i-1].Time.Format(time.RFC3339)))
		}
	}
	return nil
}

// SignalType represents the direction of a trading signal.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// SignalStrength represents how strong a signal's conviction is.
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "WEAK"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthStrong   SignalStrength = "STRONG"
)

// rank orders strengths so policies can express a minimum.
func (s SignalStrength) rank() int {
	switch s {
	case StrengthWeak:
		return 1
	case StrengthModerate:
		return 2
	case StrengthStrong:
		return 3
	}
	return 0
}

// AtLeast reports whether s is at least as strong as min.
func (s SignalStrength) AtLeast(min SignalStrength) bool {
	return s.rank() >= min.rank()
}

// SignalPolicy decides which signals are worth acting on.
type SignalPolicy struct {
	// MinStrength is the weakest strength still considered actionable.
	MinStrength SignalStrength
	// MinConfidence is the confidence floor, in [0,1].
	MinConfidence float64
}

// DefaultSignalPolicy returns the policy used when none is configured:
// at least MODERATE strength with confidence 0.7 or better.
func DefaultSignalPolicy() SignalPolicy {
	return SignalPolicy{
		MinStrength:   StrengthModerate,
		MinConfidence: 0.7,
	}
}

// MarketSignal is a timestamped directional judgment about an instrument.
// Signals are immutable once constructed; a strategy emits at most one per
// evaluated bar and the simulator consumes or discards it.
type MarketSignal struct {
	Symbol      string
	Type        SignalType
	Strength    SignalStrength
	Price       float64
	Confidence  float64
	Source      string
	Reason      string
	Metadata    map[string]any
	GeneratedAt time.Time
}

// NewSignal constructs a validated MarketSignal. Confidence outside [0,1]
// is rejected, never clamped.
func NewSignal(symbol string, typ SignalType, strength SignalStrength, price, confidence float64, source string, generatedAt time.Time) (MarketSignal, error) {
	if symbol == "" {
		return MarketSignal{}, WrapError(ErrValidation, fmt.Errorf("signal symbol is empty"))
	}
	if confidence < 0 || confidence > 1 {
		return MarketSignal{}, WrapError(ErrValidation,
			fmt.Errorf("confidence must be in [0,1], got %f", confidence))
	}
	switch typ {
	case SignalBuy, SignalSell, SignalHold:
	default:
		return MarketSignal{}, WrapError(ErrValidation, fmt.Errorf("unknown signal type %q", typ))
	}
	if strength.rank() == 0 {
		return MarketSignal{}, WrapError(ErrValidation, fmt.Errorf("unknown signal strength %q", strength))
	}
	return MarketSignal{
		Symbol:      symbol,
		Type:        typ,
		Strength:    strength,
		Price:       price,
		Confidence:  confidence,
		Source:      source,
		GeneratedAt: generatedAt,
	}, nil
}

// WithReason returns a copy of the signal carrying a human-readable reason.
func (s MarketSignal) WithReason(reason string) MarketSignal {
	s.Reason = reason
	return s
}

// WithMetadata returns a copy of the signal with the given metadata attached.
func (s MarketSignal) WithMetadata(md map[string]any) MarketSignal {
	s.Metadata = md
	return s
}

// Actionable reports whether the signal clears the policy bar: a directional
// type, strength at or above the policy minimum, and confidence at or above
// the policy floor. HOLD signals are never actionable.
func (s MarketSignal) Actionable(policy SignalPolicy) bool {
	if s.Type == SignalHold {
		return false
	}
	return s.Strength.AtLeast(policy.MinStrength) && s.Confidence >= policy.MinConfidence
}

// Expired reports whether the signal is older than maxAge at the given time.
// A zero maxAge disables expiry.
func (s MarketSignal) Expired(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.GeneratedAt) > maxAge
}
