package repository

import (
	"sync"
	"time"

	"ac-server/internal/model"
	"ac-server/internal/storage"
)

// collection 一个实体类型的有序内存列表，读多写少
type collection[T any] struct {
	mu    sync.RWMutex
	name  storage.Collection
	items []T
	clone func(T) T
	stamp func(*T, time.Time)
}

func newCollection[T any](name storage.Collection, clone func(T) T, stamp func(*T, time.Time)) *collection[T] {
	return &collection[T]{name: name, clone: clone, stamp: stamp}
}

func keyOf[T any](rec *T) string {
	return any(rec).(model.Record).RecordKey()
}

func (c *collection[T]) reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]T, 0, len(items))
	for _, it := range items {
		c.items = append(c.items, c.clone(it))
	}
}

// all 返回全部记录的副本
func (c *collection[T]) all() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cloneLocked()
}

func (c *collection[T]) cloneLocked() []T {
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

// filter 返回满足条件的记录副本
func (c *collection[T]) filter(pred func(*T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for i := range c.items {
		if pred(&c.items[i]) {
			out = append(out, c.clone(c.items[i]))
		}
	}
	return out
}

// first 返回第一条满足条件的记录副本
func (c *collection[T]) first(pred func(*T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.items {
		if pred(&c.items[i]) {
			return c.clone(c.items[i]), true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) get(key string) (T, bool) {
	return c.first(func(rec *T) bool { return keyOf(rec) == key })
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *collection[T]) indexLocked(key string) int {
	for i := range c.items {
		if keyOf(&c.items[i]) == key {
			return i
		}
	}
	return -1
}

// putLocked 先移除同键记录再追加，整条替换
func (c *collection[T]) putLocked(rec T) {
	key := keyOf(&rec)
	if idx := c.indexLocked(key); idx >= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	}
	c.items = append(c.items, rec)
}
