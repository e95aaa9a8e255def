package trajectory

// window is a fixed-size FIFO ring of tool names.
type window struct {
	buf   []string
	head  int
	count int
}

func newWindow(size int) *window {
	return &window{buf: make([]string, size)}
}

// push appends a tool, evicting the oldest one when the window is full.
func (w *window) push(tool string) {
	idx := (w.head + w.count) % len(w.buf)
	w.buf[idx] = tool
	if w.count < len(w.buf) {
		w.count++
		return
	}
	w.head = (w.head + 1) % len(w.buf)
}

func (w *window) len() int {
	return w.count
}

// items returns the tools from oldest to newest.
func (w *window) items() []string {
	out := make([]string, w.count)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// recent returns up to n newest tools, oldest first.
func (w *window) recent(n int) []string {
	all := w.items()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

func (w *window) reset() {
	for i := range w.buf {
		w.buf[i] = ""
	}
	w.head = 0
	w.count = 0
}
