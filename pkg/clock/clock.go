package clock

import (
	"sync"
	"time"
)

// Clock 时间来源，便于在测试中替换
type Clock interface {
	Now() time.Time
}

// System 系统时钟，返回精确到秒的UTC时间
type System struct{}

// Now 当前时间
func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Fake 可手动推进的时钟，并发安全
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake 创建一个从 start 开始的时钟
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

// Now 当前时间
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance 时钟前进 d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set 把时钟设置到 t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
