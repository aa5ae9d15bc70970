package buffer

import (
	"math"
	"sync"
)

type Average float64
type Minimum float64
type Maximum float64
type Sum float64

// SampleBuffer is a fixed size ring of the most recent samples. Until it has
// wrapped only the samples added so far are used.
type SampleBuffer struct {
	position int
	size     int
	count    int
	data     []float64
	lock     sync.Mutex
}

func NewBuffer(size int) *SampleBuffer {
	return &SampleBuffer{
		size: size,
		data: make([]float64, size),
	}
}

func (b *SampleBuffer) AddItem(val float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.data[b.position] = val
	b.position++
	if b.position == b.size {
		b.position = 0
	}
	if b.count < b.size {
		b.count++
	}
}

// Len is the number of samples held.
func (b *SampleBuffer) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.count
}

func (b *SampleBuffer) GetSize() int {
	return b.size
}

// Reset forgets every sample.
func (b *SampleBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.position = 0
	b.count = 0
}

// Values returns a copy of the samples, oldest first.
func (b *SampleBuffer) Values() []float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.values()
}

func (b *SampleBuffer) values() []float64 {
	out := make([]float64, 0, b.count)
	start := b.position - b.count
	if start < 0 {
		start += b.size
	}
	for i := 0; i < b.count; i++ {
		out = append(out, b.data[(start+i)%b.size])
	}
	return out
}

func (b *SampleBuffer) GetAverageMinMaxSum() (Average, Minimum, Maximum, Sum) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == 0 {
		return 0, 0, 0, 0
	}
	min := math.MaxFloat64
	max := -math.MaxFloat64
	sum := 0.0
	for _, x := range b.values() {
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
		sum += x
	}
	return Average(sum / float64(b.count)), Minimum(min), Maximum(max), Sum(sum)
}

// AverageLast averages the most recent n samples, fewer if not that many are
// held.
func (b *SampleBuffer) AverageLast(n int) Average {
	b.lock.Lock()
	defer b.lock.Unlock()
	vals := b.values()
	if n > len(vals) {
		n = len(vals)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range vals[len(vals)-n:] {
		sum += x
	}
	return Average(sum / float64(n))
}

// MaxWindowAverage finds the run of n consecutive samples with the highest
// average. It returns that average and the index, oldest first, of the last
// sample in the run. With fewer than n samples the whole buffer is the run.
func (b *SampleBuffer) MaxWindowAverage(n int) (Average, int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	vals := b.values()
	if len(vals) == 0 || n <= 0 {
		return 0, -1
	}
	if n > len(vals) {
		n = len(vals)
	}
	sum := 0.0
	for _, x := range vals[:n] {
		sum += x
	}
	best, end := sum, n-1
	for i := n; i < len(vals); i++ {
		sum += vals[i] - vals[i-n]
		if sum > best {
			best, end = sum, i
		}
	}
	return Average(best / float64(n)), end
}

func (b *SampleBuffer) GetLast() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == 0 {
		return 0
	}
	index := b.position - 1
	if index < 0 {
		index += b.size
	}
	return b.data[index]
}
