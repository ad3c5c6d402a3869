package cache_test

import (
	"sync"
	"testing"

	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/model"
)

func TestNewIsEmpty(t *testing.T) {
	c := cache.New()
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
	if all := c.All(); all == nil || len(all) != 0 {
		t.Errorf("All = %#v, want empty slice", all)
	}
	if _, ok := c.Find(1); ok {
		t.Error("Find on empty cache returned ok")
	}
}

func TestReplaceAllSwapsWholesale(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]model.Medicine{
		{ID: 1, Name: "A", TakenTime: "08:00"},
		{ID: 2, Name: "B", TakenTime: "09:00"},
	})
	c.ReplaceAll([]model.Medicine{
		{ID: 3, Name: "C", TakenTime: "10:00"},
	})

	if c.Size() != 1 {
		t.Fatalf("Size = %d, want 1", c.Size())
	}
	if _, ok := c.Find(1); ok {
		t.Error("record 1 survived a replace")
	}
	got, ok := c.Find(3)
	if !ok || got.Name != "C" {
		t.Errorf("Find(3) = %+v, %v", got, ok)
	}
}

func TestReplaceAllDuplicateIDs(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]model.Medicine{
		{ID: 1, Name: "first"},
		{ID: 2, Name: "other"},
		{ID: 1, Name: "second"},
	})
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
	all := c.All()
	if all[0].ID != 1 || all[0].Name != "second" || all[1].ID != 2 {
		t.Errorf("All = %+v", all)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]model.Medicine{{ID: 1, Name: "A"}})
	all := c.All()
	all[0].Name = "mutated"
	if got, _ := c.Find(1); got.Name != "A" {
		t.Errorf("cache was mutated through All(): %q", got.Name)
	}
}

func TestConcurrentReplaceAndRead(t *testing.T) {
	c := cache.New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			recs := make([]model.Medicine, n)
			for j := range recs {
				recs[j] = model.Medicine{ID: int64(j)}
			}
			c.ReplaceAll(recs)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Size()
			_ = c.All()
			_, _ = c.Find(0)
		}()
	}
	wg.Wait()
	if c.Size() > 7 {
		t.Errorf("Size = %d, want at most 7", c.Size())
	}
}
