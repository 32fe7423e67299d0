package account

import (
	"errors"
	"testing"
	"time"

	"github.com/marlinquant/marlin/internal/core"
)

func TestTradeCostAndValue(t *testing.T) {
	now := time.Now()
	tr, err := NewTrade("order-1", "BTCUSDT", SideBuy, dec("0.01"), dec("50000"), dec("0.5"), "USDT", now)
	if err != nil {
		t.Fatalf("NewTrade() error = %v", err)
	}

	if !tr.TotalCost().Equal(dec("500.50")) {
		t.Errorf("TotalCost() = %s, want 500.50", tr.TotalCost())
	}
	if !tr.NetValue().Equal(dec("499.50")) {
		t.Errorf("NetValue() = %s, want 499.50", tr.NetValue())
	}
}

func TestNewTrade_Validation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		symbol string
		side   Side
		qty    string
		price  string
		fee    string
	}{
		{"empty symbol", "", SideBuy, "1", "100", "0"},
		{"zero quantity", "BTCUSDT", SideBuy, "0", "100", "0"},
		{"negative price", "BTCUSDT", SideSell, "1", "-1", "0"},
		{"negative fee", "BTCUSDT", SideSell, "1", "100", "-0.1"},
		{"unknown side", "BTCUSDT", Side("BOTH"), "1", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrade("order-1", tt.symbol, tt.side, dec(tt.qty), dec(tt.price), dec(tt.fee), "USDT", now)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestTradeZeroFee(t *testing.T) {
	now := time.Now()
	tr, err := NewTrade("order-2", "ETHUSDT", SideSell, dec("2"), dec("3000"), dec("0"), "USDT", now)
	if err != nil {
		t.Fatalf("NewTrade() error = %v", err)
	}
	if !tr.TotalCost().Equal(tr.NetValue()) {
		t.Error("with zero fee, total cost and net value should match")
	}
	if !tr.TotalCost().Equal(dec("6000")) {
		t.Errorf("TotalCost() = %s, want 6000", tr.TotalCost())
	}
}
