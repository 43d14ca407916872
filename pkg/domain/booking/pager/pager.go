// Package pager pages through an in-memory list with a fixed-width sliding
// window of page numbers. Navigation passes through a short "loading" phase
// whose length is decided by an injected Settler.
package pager

import (
	"sync"
	"time"
)

const (
	WindowWidth = 5
	JumpSize    = 10
)

// Settler decides when a navigation commits.
type Settler interface {
	Settle(commit func())
}

// Immediate commits synchronously.
type Immediate struct{}

func (Immediate) Settle(commit func()) { commit() }

// Delayed commits on a timer goroutine after Delay.
type Delayed struct {
	Delay time.Duration
}

func (d Delayed) Settle(commit func()) {
	if d.Delay <= 0 {
		commit()
		return
	}
	time.AfterFunc(d.Delay, commit)
}

// SettlerFor returns Immediate for non-positive delays.
func SettlerFor(delay time.Duration) Settler {
	if delay <= 0 {
		return Immediate{}
	}
	return Delayed{Delay: delay}
}

// Window is the set of page controls to show.
type Window struct {
	Pages       []int
	ShowFirst   bool // page 1 sits outside Pages
	LeadingGap  bool // ellipsis between 1 and Pages
	ShowLast    bool // last page sits outside Pages
	TrailingGap bool // ellipsis between Pages and the last page
}

type Pager[T any] struct {
	mu        sync.Mutex
	items     []T
	pageSize  int
	current   int
	loading   bool
	gen       uint64
	settler   Settler
	onSettled func(page int)
}

// New panics on a non-positive page size.
func New[T any](pageSize int, settler Settler) *Pager[T] {
	if pageSize <= 0 {
		panic("pager: page size must be positive")
	}
	if settler == nil {
		settler = Immediate{}
	}
	return &Pager[T]{pageSize: pageSize, current: 1, settler: settler}
}

// OnSettled registers a hook fired, outside the pager lock, after each committed navigation.
func (p *Pager[T]) OnSettled(fn func(page int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSettled = fn
}

// Reset replaces the items and returns to page 1.
func (p *Pager[T]) Reset(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
	p.current = 1
	p.loading = false
	p.gen++
}

func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items
}

func (p *Pager[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *Pager[T]) PageSize() int { return p.pageSize }

func (p *Pager[T]) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Pager[T]) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages()
}

func (p *Pager[T]) totalPages() int {
	return (len(p.items) + p.pageSize - 1) / p.pageSize
}

// CurrentItems returns the slice of items on the current page.
func (p *Pager[T]) CurrentItems() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	from, to := p.bounds()
	return p.items[from:to]
}

// Range returns the 1-based positions of the first and last item on the
// current page, or 0, 0 when there are none.
func (p *Pager[T]) Range() (from, to int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lo, hi := p.bounds()
	if lo == hi {
		return 0, 0
	}
	return lo + 1, hi
}

func (p *Pager[T]) bounds() (int, int) {
	from := (p.current - 1) * p.pageSize
	if from > len(p.items) {
		from = len(p.items)
	}
	to := from + p.pageSize
	if to > len(p.items) {
		to = len(p.items)
	}
	return from, to
}

func (p *Pager[T]) Window() Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := p.totalPages()
	pages := SlidingWindow(p.current, total, WindowWidth)
	w := Window{Pages: pages}
	if len(pages) == 0 {
		return w
	}
	first, last := pages[0], pages[len(pages)-1]
	w.ShowFirst = first > 1
	w.LeadingGap = first > 2
	w.ShowLast = last < total
	w.TrailingGap = last < total-1
	return w
}

// SlidingWindow returns up to width contiguous page numbers around current.
func SlidingWindow(current, total, width int) []int {
	if total <= 0 || width <= 0 {
		return nil
	}
	if total <= width {
		return seq(1, total)
	}
	start := max(1, current-width/2)
	end := min(total, start+width-1)
	if end-start+1 < width {
		start = max(1, end-width+1)
	}
	return seq(start, end)
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func (p *Pager[T]) CanPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current > 1
}

func (p *Pager[T]) CanNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current < p.totalPages()
}

func (p *Pager[T]) CanJumpBack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current > JumpSize
}

func (p *Pager[T]) CanJumpForward() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current+JumpSize <= p.totalPages()
}

func (p *Pager[T]) Next() bool { return p.navigate(func(cur, _ int) int { return cur + 1 }) }

func (p *Pager[T]) Previous() bool { return p.navigate(func(cur, _ int) int { return cur - 1 }) }

func (p *Pager[T]) GoTo(page int) bool { return p.navigate(func(_, _ int) int { return page }) }

func (p *Pager[T]) JumpBack() bool {
	return p.navigate(func(cur, _ int) int {
		if cur <= JumpSize {
			return cur
		}
		return cur - JumpSize
	})
}

func (p *Pager[T]) JumpForward() bool {
	return p.navigate(func(cur, total int) int {
		if cur+JumpSize > total {
			return cur
		}
		return cur + JumpSize
	})
}

// navigate reports whether the move was accepted. Moves out of range, to the
// current page or while a previous move is settling are dropped.
func (p *Pager[T]) navigate(target func(cur, total int) int) bool {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return false
	}
	total := p.totalPages()
	to := target(p.current, total)
	if to < 1 || to > total || to == p.current {
		p.mu.Unlock()
		return false
	}
	p.loading = true
	gen := p.gen
	p.mu.Unlock()

	p.settler.Settle(func() { p.commit(gen, to) })
	return true
}

func (p *Pager[T]) commit(gen uint64, page int) {
	p.mu.Lock()
	if !p.loading || gen != p.gen {
		// Reset ran while the move was settling.
		p.mu.Unlock()
		return
	}
	p.current = page
	p.loading = false
	hook := p.onSettled
	p.mu.Unlock()

	if hook != nil {
		hook(page)
	}
}
