package game

// Body is the ordered set of cells occupied by the snake, head first.
//
// It is a ring buffer so moving costs one PushFront and one PopBack
// regardless of length.
type Body struct {
	cells []int
	start int
	n     int
}

func newBody(head int, capacity int) Body {
	if capacity < 1 {
		capacity = 1
	}
	b := Body{cells: make([]int, capacity)}
	b.PushFront(head)
	return b
}

func (b *Body) Len() int { return b.n }

// At returns the i-th cell counting from the head.
func (b *Body) At(i int) int {
	if i < 0 || i >= b.n {
		panic("game: body index out of range")
	}
	return b.cells[(b.start+i)%len(b.cells)]
}

func (b *Body) Head() int { return b.At(0) }
func (b *Body) Tail() int { return b.At(b.n - 1) }

func (b *Body) PushFront(cell int) {
	if b.n == len(b.cells) {
		b.grow()
	}
	b.start = (b.start - 1 + len(b.cells)) % len(b.cells)
	b.cells[b.start] = cell
	b.n++
}

// PopBack removes and returns the tail cell.
func (b *Body) PopBack() int {
	tail := b.Tail()
	b.n--
	return tail
}

// Cells copies the body into a new slice, head first.
func (b *Body) Cells() []int {
	out := make([]int, b.n)
	for i := range out {
		out[i] = b.cells[(b.start+i)%len(b.cells)]
	}
	return out
}

func (b *Body) grow() {
	size := len(b.cells) * 2
	if size == 0 {
		size = 4
	}
	b.cells, b.start = b.Cells(), 0
	b.cells = append(b.cells, make([]int, size-len(b.cells))...)
}

func (b Body) clone() Body {
	out := Body{cells: make([]int, len(b.cells)), start: b.start, n: b.n}
	copy(out.cells, b.cells)
	return out
}
