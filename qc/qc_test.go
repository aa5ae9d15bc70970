package qc

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classes = map[string]Range{
	"rain":        Rain,
	"wind speed":  WindSpeed,
	"wind dir":    WindDirection,
	"pressure":    Pressure,
	"temperature": Temperature,
	"humidity":    Humidity,
	"uv":          UV,
	"visible":     Visible,
	"ir":          IR,
	"lux":         Lux,
}

func TestCheck_InsideRangeIsIdentity(t *testing.T) {
	for name, r := range classes {
		step := (r.Max - r.Min) / 10
		for v := r.Min; v <= r.Max; v += step {
			require.Equal(t, v, Check(v, r.Min, r.Max, r.Err), name)
			require.False(t, r.Check(v).Faulty(), name)
		}
		require.Equal(t, r.Max, Check(r.Max, r.Min, r.Max, r.Err), name)
	}
}

func TestCheck_OutsideRangeIsSentinel(t *testing.T) {
	for name, r := range classes {
		for _, v := range []float64{r.Min - 0.1, r.Max + 0.1, r.Max * 10, math.NaN(), math.Inf(1), math.Inf(-1)} {
			require.Equal(t, r.Err, Check(v, r.Min, r.Max, r.Err), "%s %v", name, v)
			got := r.Check(v)
			require.True(t, got.Faulty(), "%s %v", name, v)
			require.Equal(t, r.Err, got.Float64(), "%s %v", name, v)
		}
	}
}

func TestReading_Int32(t *testing.T) {
	assert.Equal(t, int32(270), WindDirection.Check(270).Int32())
	assert.Equal(t, int32(-999), WindDirection.Check(361).Int32())
}

func TestRainForPeriod(t *testing.T) {
	// a full minute allows the 60 second maximum
	assert.False(t, RainForPeriod(Rain.Max, time.Minute).Faulty())
	assert.True(t, RainForPeriod(Rain.Max+0.2, time.Minute).Faulty())

	// five minutes allows five times as much
	assert.False(t, RainForPeriod(Rain.Max*4, 5*time.Minute).Faulty())
	assert.True(t, RainForPeriod(Rain.Max*6, 5*time.Minute).Faulty())

	// a short period scales down
	assert.True(t, RainForPeriod(Rain.Max, 30*time.Second).Faulty())
	assert.False(t, RainForPeriod(0.4, 30*time.Second).Faulty())

	// no elapsed time is treated as a full minute
	r := RainForPeriod(1.2, 0)
	assert.False(t, r.Faulty())
	assert.Equal(t, 1.2, r.Float64())

	assert.Equal(t, Rain.Err, RainForPeriod(-0.2, time.Minute).Float64())
	assert.Equal(t, Rain.Err, RainForPeriod(math.NaN(), time.Minute).Float64())
}
