package power

import (
	"context"
	"fmt"
	"sync"

	"github.com/rpint/rpint/internal/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ina219"
	"periph.io/x/host/v3"
)

// DefaultAddress is the INA219 address on the Waveshare UPS HAT.
const DefaultAddress = 0x43

// INA219 is a Source backed by an INA219 on an I2C bus.
type INA219 struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *ina219.Dev
}

// OpenINA219 initialises the host drivers and opens the monitor at address on
// the named bus. An empty bus name picks the first bus registered.
func OpenINA219(busName string, address int) (*INA219, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrPower,
			"Couldn't initialise the board drivers",
			"Check that I2C is enabled (raspi-config > Interface Options)")
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrPower,
			fmt.Sprintf("Couldn't open I2C bus %q", busName),
			"Set ups_hat_i2c_bus to one of the buses listed by 'ls /dev/i2c-*'")
	}

	if address == 0 {
		address = DefaultAddress
	}
	dev, err := ina219.New(bus, &ina219.Opts{
		Address:       address,
		SenseResistor: 10 * physic.MilliOhm,
		MaxCurrent:    5 * physic.Ampere,
	})
	if err != nil {
		_ = bus.Close()
		return nil, errors.WrapWithCode(err, errors.ErrPower,
			fmt.Sprintf("No INA219 answered at 0x%02x", address),
			"Check the UPS HAT is seated, or set use_ups_hat = false")
	}

	return &INA219{bus: bus, dev: dev}, nil
}

// Read samples bus voltage and power.
func (s *INA219) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pm, err := s.dev.Sense()
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		BusVolts: float64(pm.Voltage) / float64(physic.Volt),
		Watts:    float64(pm.Power) / float64(physic.Watt),
	}, nil
}

// Close releases the I2C bus.
func (s *INA219) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Close()
}
