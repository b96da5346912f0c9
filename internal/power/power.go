// Package power samples the UPS HAT's battery and publishes charge, voltage
// and load to the shared store.
package power

import (
	"context"
	"math"
	"strconv"

	"github.com/rpint/rpint/internal/store"
)

// Cell voltage bounds for the charge estimate.
const (
	VoltsEmpty = 3.0
	VoltsFull  = 4.2
)

// Reading is one raw measurement from the power monitor.
type Reading struct {
	// BusVolts is the battery side bus voltage.
	BusVolts float64
	// Watts is the power drawn by the load.
	Watts float64
}

// Source reads the power monitor.
type Source interface {
	Read(ctx context.Context) (Reading, error)
}

// Sample is a Reading converted for display.
type Sample struct {
	Charge  int
	Voltage float64
	Load    float64
}

// ChargePercent maps a bus voltage linearly from VoltsEmpty..VoltsFull onto
// 0..100, clamped and rounded. It is not a discharge curve.
func ChargePercent(volts float64) int {
	pct := (volts - VoltsEmpty) / (VoltsFull - VoltsEmpty) * 100
	pct = math.Max(0, math.Min(100, pct))
	return int(math.Round(pct))
}

// FromReading converts a raw reading into a Sample.
func FromReading(r Reading) Sample {
	return Sample{
		Charge:  ChargePercent(r.BusVolts),
		Voltage: round2(r.BusVolts),
		Load:    round2(r.Watts),
	}
}

// Values returns the sample as the three battery scalars.
func (s Sample) Values() map[string]string {
	return map[string]string{
		store.KeyBatteryPower:   strconv.Itoa(s.Charge),
		store.KeyBatteryVoltage: strconv.FormatFloat(s.Voltage, 'f', 2, 64),
		store.KeyBatteryLoad:    strconv.FormatFloat(s.Load, 'f', 2, 64),
	}
}

// Save writes the sample in one batch so readers never mix two samples.
func Save(ctx context.Context, s store.Store, sample Sample) error {
	return s.SetMany(ctx, sample.Values())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
