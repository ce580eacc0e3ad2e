package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	c.Set("/docs/.ts/tsm.json", "meta")

	val, found := c.Get("/docs/.ts/tsm.json")
	assert.True(t, found)
	assert.Equal(t, "meta", val)
}

func TestCache_GetMissing(t *testing.T) {
	c := New[*int](time.Hour)
	defer c.Close()

	val, found := c.Get("nonexistent")
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestCache_Expiration(t *testing.T) {
	c := New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key", "value")

	val, found := c.Get("key")
	assert.True(t, found)
	assert.Equal(t, "value", val)

	time.Sleep(100 * time.Millisecond)

	val, found = c.Get("key")
	assert.False(t, found)
	assert.Empty(t, val)
}

func TestCache_SetWithTTL(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	c.SetWithTTL("short", "value", 50*time.Millisecond)
	c.Set("long", "value")

	_, found := c.Get("short")
	assert.True(t, found)
	_, found = c.Get("long")
	assert.True(t, found)

	time.Sleep(100 * time.Millisecond)

	_, found = c.Get("short")
	assert.False(t, found)
	_, found = c.Get("long")
	assert.True(t, found)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[int](time.Hour)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	_, found = c.Get("b")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestCache_GetOrSet(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	callCount := 0
	fn := func() (string, error) {
		callCount++
		return "computed", nil
	}

	val, err := c.GetOrSet("key", fn)
	assert.NoError(t, err)
	assert.Equal(t, "computed", val)
	assert.Equal(t, 1, callCount)

	val, err = c.GetOrSet("key", fn)
	assert.NoError(t, err)
	assert.Equal(t, "computed", val)
	assert.Equal(t, 1, callCount)
}

func TestCache_GetOrSetErrorNotCached(t *testing.T) {
	c := New[string](time.Hour)
	defer c.Close()

	_, err := c.GetOrSet("key", func() (string, error) {
		return "", errors.New("boom")
	})
	assert.Error(t, err)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](time.Hour)
	defer c.Close()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			c.Set("key", i)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			c.Get("key")
		}
		done <- true
	}()

	<-done
	<-done
}
