package readings

import (
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
)

func TestRecentCache(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newRecentCache(30 * time.Second)
	c.now = func() time.Time { return now }

	if _, ok := c.get(10); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.put(10, testutil.Series(time.Minute, 30, 31))
	got, ok := c.get(10)
	if !ok || len(got) != 2 {
		t.Fatalf("get after put = %v, %v", got, ok)
	}

	got[0].Humidity = 99
	again, _ := c.get(10)
	if again[0].Humidity != 30 {
		t.Error("cache returned a shared slice")
	}

	if _, ok := c.get(5); ok {
		t.Error("hit for a different limit")
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.get(10); ok {
		t.Error("expired entry still served")
	}

	c.put(10, testutil.Series(time.Minute, 30))
	c.invalidate()
	if _, ok := c.get(10); ok {
		t.Error("entry survived invalidate")
	}
}

func TestRecentCache_Disabled(t *testing.T) {
	c := newRecentCache(0)
	c.put(1, testutil.Series(time.Minute, 30))
	if _, ok := c.get(1); ok {
		t.Error("zero TTL cache served a hit")
	}

	var nilCache *recentCache
	nilCache.invalidate()
	if _, ok := nilCache.get(1); ok {
		t.Error("nil cache served a hit")
	}
}

func TestRecentCache_TemperatureNotShared(t *testing.T) {
	c := newRecentCache(time.Minute)
	in := []models.SensorReading{testutil.NewReading(testutil.WithTemperature(models.Float(21)))}
	c.put(5, in)

	*in[0].Temperature = 40
	got, _ := c.get(5)
	if *got[0].Temperature != 21 {
		t.Fatalf("cached temperature = %v after caller mutated its input, want 21", *got[0].Temperature)
	}

	*got[0].Temperature = 35
	again, _ := c.get(5)
	if *again[0].Temperature != 21 {
		t.Errorf("cached temperature = %v after caller mutated a result, want 21", *again[0].Temperature)
	}
}
