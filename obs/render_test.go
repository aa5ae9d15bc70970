package obs

import (
	"fmt"
	"testing"
	"time"

	"github.com/gr-butler/fullstation/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenRecord(t *testing.T) *Record {
	r := &Record{}
	r.Start(time.Date(2022, 5, 17, 17, 40, 4, 0, time.UTC), 3.85, health.Bits(8770))
	require.NoError(t, r.AddFloat("ws", 5.3))
	require.NoError(t, r.AddInt("wd", 270))
	return r
}

func TestRender_Transmit(t *testing.T) {
	s, err := Render(goldenRecord(t), FormTransmit)
	require.NoError(t, err)
	require.Equal(t, "at=2022-05-17T17%3A40%3A04&bv=3.85&hth=8770&ws=5.3&wd=270", s)
}

func TestRender_Queue(t *testing.T) {
	r := goldenRecord(t)
	s, err := Render(r, FormQueue)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("at=2022-05-17T17%%3A40%%3A04&bv=3.85&hth=%d&ws=5.3&wd=270", 8770|0x10), s)

	// the record itself keeps its live health bits
	require.Equal(t, health.Bits(8770), r.Health)
	s, err = Render(r, FormTransmit)
	require.NoError(t, err)
	require.Contains(t, s, "&hth=8770&")
}

func TestRender_Log(t *testing.T) {
	s, err := Render(goldenRecord(t), FormLog)
	require.NoError(t, err)
	require.Equal(t, `{"at":"2022-05-17T17:40:04","bv":3.85,"hth":8770,"ws":5.3,"wd":270}`, s)
}

func TestRender_AllKinds(t *testing.T) {
	r := &Record{}
	r.Start(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)), 4.1, 0)
	require.NoError(t, r.AddFloat("bt1", -999.9))
	require.NoError(t, r.AddFloat("bh1", 45.26))
	require.NoError(t, r.AddInt("wgd", -999))
	require.NoError(t, r.AddUnsigned("pm1s25", 4000000000))
	require.NoError(t, r.AddFloat("rg1", 0))

	s, err := Render(r, FormTransmit)
	require.NoError(t, err)
	// timestamps are always UTC
	assert.Equal(t, "at=2024-01-02T02%3A04%3A05&bv=4.10&hth=0&bt1=-999.9&bh1=45.3&wgd=-999&pm1s25=4000000000&rg1=0.0", s)

	s, err = Render(r, FormLog)
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-01-02T02:04:05","bv":4.10,"hth":0,"bt1":-999.9,"bh1":45.3,"wgd":-999,"pm1s25":4000000000,"rg1":0.0}`, s)
}

func TestRender_NotInUse(t *testing.T) {
	r := goldenRecord(t)
	r.Clear()
	for _, f := range []Form{FormLog, FormTransmit, FormQueue} {
		s, err := Render(r, f)
		require.ErrorIs(t, err, ErrNotInUse, f.String())
		require.Empty(t, s)
	}
}

func TestBatteryVoltage(t *testing.T) {
	cases := map[float64]string{
		3.85:  "3.85",
		4.1:   "4.10",
		0:     "0.00",
		3.999: "4.00",
		12.05: "12.05",
		0.07:  "0.07",
		-1.5:  "-1.50",
	}
	for v, want := range cases {
		assert.Equal(t, want, batteryVoltage(v), "%v", v)
	}
}

func TestRecord_Slots(t *testing.T) {
	r := &Record{}
	r.Start(time.Now(), 4, 0)
	for i := 0; i < MaxSensors; i++ {
		require.NoError(t, r.AddInt(fmt.Sprintf("s%d", i), int32(i)))
	}
	require.ErrorIs(t, r.AddFloat("over", 1), ErrRecordFull)
	require.Equal(t, MaxSensors, r.Len())

	s, ok := r.Lookup("s7")
	require.True(t, ok)
	require.Equal(t, int32(7), s.I)

	// slots are reused after a clear, the order restarts at the first slot
	r.Start(time.Now(), 4, 0)
	require.Equal(t, 0, r.Len())
	require.NoError(t, r.AddFloat("ws", 1.5))
	got := r.Sensors()
	require.Len(t, got, 1)
	require.Equal(t, "ws", got[0].ID)
	require.Equal(t, Float, got[0].Kind)
	_, ok = r.Lookup("s7")
	require.False(t, ok)
}
