package registry

import (
	"math"
	"math/rand"
	"time"
)

// Reading generation ranges.
const (
	// temperatureMin and temperatureSpan bound the synthetic ambient
	// temperature in °C: [20, 25), rounded to 2 decimal places.
	temperatureMin  = 20.0
	temperatureSpan = 5.0

	// soundMin and soundSpan bound the synthetic sound level in dB: [30, 80].
	soundMin  = 30
	soundSpan = 50

	// motionProbability is the chance a camera reports motion on any tick.
	motionProbability = 0.3
)

// GenerateReading produces a synthetic reading for the given device type.
//
// It is a pure function of its inputs: the caller supplies the clock and
// the random source, which keeps generation deterministic under test.
//
// Per-type payloads:
//   - temperature: temperatura, float in [20, 25) °C, 2 decimal places
//   - sound: sonido, integer in [30, 80] dB
//   - camera: movimiento, bool, true with probability 0.3
//   - speaker, computer: timestamp only
func GenerateReading(t DeviceType, now time.Time, rng *rand.Rand) Reading {
	r := Reading{Timestamp: now}

	switch t {
	case DeviceTypeTemperature:
		v := math.Round((temperatureMin+rng.Float64()*temperatureSpan)*100) / 100
		r.Temperatura = &v
	case DeviceTypeSound:
		v := soundMin + rng.Intn(soundSpan+1)
		r.Sonido = &v
	case DeviceTypeCamera:
		v := rng.Float64() < motionProbability
		r.Movimiento = &v
	}

	return r
}
