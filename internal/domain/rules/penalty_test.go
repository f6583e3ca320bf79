package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/domain/valueobject"
)

func dptr(t time.Time) *time.Time { return &t }

func newTestEngine(t *testing.T, baseRate, increment float64) *Engine {
	t.Helper()

	cfg := valueobject.DefaultRulesConfig()
	cfg.PenaltyBaseRatePercent = decimal.NewFromFloat(baseRate)
	cfg.PenaltyMonthlyIncrementPercent = decimal.NewFromFloat(increment)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

// Official DGI reference cases for the calendar month method, due date
// September 18: any started month counts entirely.
func TestMonthsOfDelay(t *testing.T) {
	due := d(2023, time.September, 18)

	tests := []struct {
		name    string
		payment *time.Time
		months  int
	}{
		{"unpaid", nil, 0},
		{"paid before due date", dptr(d(2023, time.September, 10)), 0},
		{"paid on due date", dptr(d(2023, time.September, 18)), 0},
		{"one day late", dptr(d(2023, time.September, 19)), 1},
		{"one week late same month", dptr(d(2023, time.September, 25)), 1},
		{"next month same day", dptr(d(2023, time.October, 18)), 1},
		{"next month one day past", dptr(d(2023, time.October, 19)), 2},
		{"two transitions day before", dptr(d(2023, time.November, 15)), 2},
		{"two transitions day past", dptr(d(2023, time.November, 20)), 3},
		{"year boundary", dptr(d(2024, time.February, 17)), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, _ := monthsOfDelay(due, tt.payment)
			if months != tt.months {
				t.Errorf("monthsOfDelay = %d, want %d", months, tt.months)
			}
		})
	}
}

func TestPenaltyRate(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)

	tests := []struct {
		name   string
		months int
		rate   string
	}{
		{"no delay", 0, "0"},
		{"one month", 1, "3"},
		{"two months", 2, "3.85"},
		{"three months", 3, "4.7"},
		{"six months", 6, "7.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, _ := engine.penaltyRate(tt.months)
			if rate.String() != tt.rate {
				t.Errorf("penaltyRate(%d) = %s, want %s", tt.months, rate, tt.rate)
			}
		})
	}
}

func TestPenaltyRateWithLegalDefaults(t *testing.T) {
	engine := newTestEngine(t, 2.25, 0.85)

	tests := []struct {
		months int
		rate   string
	}{
		{1, "2.25"},
		{2, "3.1"},
		{3, "3.95"},
	}

	for _, tt := range tests {
		rate, _ := engine.penaltyRate(tt.months)
		if rate.String() != tt.rate {
			t.Errorf("penaltyRate(%d) = %s, want %s", tt.months, rate, tt.rate)
		}
	}
}

func TestPenaltyAmount(t *testing.T) {
	engine := newTestEngine(t, 3.0, 0.85)

	tests := []struct {
		name          string
		unpaid        float64
		rate          float64
		invoiceAmount float64
		months        int
		penalty       string
	}{
		{"zero rate", 10000, 0, 10000, 0, "0"},
		{"unpaid invoice", 10169.50, 3.0, 10169.50, 1, "305.09"},
		{"late but fully paid uses invoice amount", 0, 3.0, 10169.50, 1, "305.09"},
		{"partial payment uses unpaid portion", 5000, 3.0, 10000, 1, "150"},
		{"on time fully paid", 0, 3.0, 0, 0, "0"},
		{"large unpaid three months", 508474.58, 4.70, 508474.58, 3, "23898.31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			penalty, _ := engine.penaltyAmount(
				decimal.NewFromFloat(tt.unpaid),
				decimal.NewFromFloat(tt.rate),
				decimal.NewFromFloat(tt.invoiceAmount),
				tt.months,
			)
			if penalty.String() != tt.penalty {
				t.Errorf("penaltyAmount = %s, want %s", penalty, tt.penalty)
			}
		})
	}
}
