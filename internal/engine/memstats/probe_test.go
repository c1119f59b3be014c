package memstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	used  int64
	limit int64
	ok    bool
}

func (f fakeSource) ReadHeapStats() (int64, int64, bool) {
	return f.used, f.limit, f.ok
}

type fakeSizer struct {
	bytes int64
}

func (f fakeSizer) TotalBytes() int64 { return f.bytes }

func TestReadFromHostSource(t *testing.T) {
	p := NewProbe(fakeSource{used: 50, limit: 200, ok: true}, nil)

	s := p.Read()
	assert.Equal(t, int64(50), s.UsedBytes)
	assert.Equal(t, int64(200), s.TotalBytes)
	assert.Equal(t, int64(150), s.AvailableBytes)
	assert.InDelta(t, 25.0, s.PercentUsed, 0.001)
}

func TestReadFallsBackWhenSourceUnavailable(t *testing.T) {
	p := NewProbe(fakeSource{ok: false}, fakeSizer{bytes: 1024})

	s := p.Read()
	assert.Equal(t, int64(1024+fallbackOtherUsageBytes), s.UsedBytes)
	assert.Equal(t, int64(fallbackTotalBytes), s.TotalBytes)
	assert.Equal(t, s.TotalBytes-s.UsedBytes, s.AvailableBytes)
	assert.Greater(t, s.PercentUsed, 0.0)
}

func TestReadFallsBackWithoutAnyCollaborator(t *testing.T) {
	p := NewProbe(nil, nil)

	s := p.Read()
	assert.Equal(t, int64(fallbackOtherUsageBytes), s.UsedBytes)
	assert.Equal(t, int64(fallbackTotalBytes), s.TotalBytes)
}

func TestReadClampsOverflowingUsage(t *testing.T) {
	p := NewProbe(fakeSource{used: 500, limit: 200, ok: true}, nil)

	s := p.Read()
	assert.Equal(t, int64(200), s.UsedBytes)
	assert.Equal(t, int64(0), s.AvailableBytes)
	assert.InDelta(t, 100.0, s.PercentUsed, 0.001)
}

func TestRuntimeSourceReportsHeap(t *testing.T) {
	used, limit, ok := RuntimeSource{}.ReadHeapStats()
	require.True(t, ok)
	assert.Greater(t, used, int64(0))
	assert.Greater(t, limit, used)
}
