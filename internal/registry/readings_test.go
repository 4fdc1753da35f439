package registry

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestGenerateReadingRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // Deterministic test source
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		r := GenerateReading(DeviceTypeTemperature, now, rng)
		if r.Temperatura == nil {
			t.Fatal("temperature reading missing temperatura")
		}
		v := *r.Temperatura
		if v < 20 || v >= 25 {
			t.Fatalf("temperatura %v out of range [20,25)", v)
		}
		if math.Abs(v*100-math.Round(v*100)) > 1e-9 {
			t.Fatalf("temperatura %v not rounded to 2 decimal places", v)
		}
		if r.Sonido != nil || r.Movimiento != nil {
			t.Fatal("temperature reading carries foreign fields")
		}
	}

	for i := 0; i < 1000; i++ {
		r := GenerateReading(DeviceTypeSound, now, rng)
		if r.Sonido == nil {
			t.Fatal("sound reading missing sonido")
		}
		if v := *r.Sonido; v < 30 || v > 80 {
			t.Fatalf("sonido %d out of range [30,80]", v)
		}
	}
}

func TestGenerateReadingMotionProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // Deterministic test source
	now := time.Now()

	const n = 10000
	trues := 0
	for i := 0; i < n; i++ {
		r := GenerateReading(DeviceTypeCamera, now, rng)
		if r.Movimiento == nil {
			t.Fatal("camera reading missing movimiento")
		}
		if *r.Movimiento {
			trues++
		}
	}

	ratio := float64(trues) / n
	if ratio < 0.25 || ratio > 0.35 {
		t.Errorf("motion ratio %v, expected around 0.3", ratio)
	}
}

func TestGenerateReadingTimestampOnlyTypes(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // Deterministic test source
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for _, dt := range []DeviceType{DeviceTypeSpeaker, DeviceTypeComputer} {
		r := GenerateReading(dt, now, rng)
		if r.Temperatura != nil || r.Sonido != nil || r.Movimiento != nil {
			t.Errorf("%s reading should carry timestamp only: %+v", dt, r)
		}
		if !r.Timestamp.Equal(now) {
			t.Errorf("%s reading timestamp %v, want %v", dt, r.Timestamp, now)
		}
	}
}
