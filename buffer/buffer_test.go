package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddItem(t *testing.T) {
	buf := NewBuffer(10)

	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(0), a)
	assert.Equal(t, Sum(0), s)

	for i := 0; i < 10; i++ {
		buf.AddItem(1)
	}

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(1), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(1), mx)
	assert.Equal(t, Sum(10), s)

	buf.AddItem(10)

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(1.9), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(10), mx)
	assert.Equal(t, Sum(19), s)
	buf.AddItem(5)

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(2.3), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(10), mx)
	assert.Equal(t, Sum(23), s)

	for _, v := range []float64{30, 8, 5, 9, 4.1, 5, 155, 88, 17, 9} {
		buf.AddItem(v)
	}

	_, mn, _, _ = buf.GetAverageMinMaxSum()
	assert.Equal(t, Minimum(4.1), mn)
	assert.Equal(t, 10, buf.Len())
	assert.Equal(t, float64(9), buf.GetLast())
}

func TestPartialBuffer(t *testing.T) {
	buf := NewBuffer(120)
	buf.AddItem(2)
	buf.AddItem(4)

	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(3), a)
	assert.Equal(t, Minimum(2), mn)
	assert.Equal(t, Maximum(4), mx)
	assert.Equal(t, Sum(6), s)
	assert.Equal(t, []float64{2, 4}, buf.Values())

	buf.Reset()
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Values())
	assert.Equal(t, float64(0), buf.GetLast())
}

func TestAverageLast(t *testing.T) {
	buf := NewBuffer(10)

	for _, v := range []float64{4, 4, 4, 4, 4, 2, 2, 2, 2, 2} {
		buf.AddItem(v)
	}

	assert.Equal(t, Average(2), buf.AverageLast(2))
	assert.Equal(t, Average(2.3333333333333335), buf.AverageLast(6))

	for i := 0; i < 4; i++ {
		buf.AddItem(2)
	}

	assert.Equal(t, Average(2), buf.AverageLast(9))
	assert.Equal(t, Average(2.2), buf.AverageLast(10))
	assert.Equal(t, Average(2.2), buf.AverageLast(50))
}

func TestValuesWrap(t *testing.T) {
	buf := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.AddItem(float64(i))
	}
	assert.Equal(t, []float64{3, 4, 5}, buf.Values())
}

func TestMaxWindowAverage(t *testing.T) {
	buf := NewBuffer(8)
	a, end := buf.MaxWindowAverage(3)
	assert.Equal(t, Average(0), a)
	assert.Equal(t, -1, end)

	for _, v := range []float64{1, 2, 6, 6, 6, 1, 0, 3} {
		buf.AddItem(v)
	}
	a, end = buf.MaxWindowAverage(3)
	assert.Equal(t, Average(6), a)
	assert.Equal(t, 4, end)

	short := NewBuffer(8)
	short.AddItem(3)
	short.AddItem(5)
	a, end = short.MaxWindowAverage(3)
	assert.Equal(t, Average(4), a)
	assert.Equal(t, 1, end)
}
