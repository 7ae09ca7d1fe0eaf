package tagging

// A Set is a bounded list of lines ordered from the most recently used
// (index 0) to the least recently used (last index).
//
// A Set never holds more lines than its capacity, and never holds two lines
// with the same tag. An empty slot is represented by the absence of a line.
type Set struct {
	lines    []Line
	capacity int
}

// NewSet creates an empty set that can hold up to capacity lines.
func NewSet(capacity int) *Set {
	if capacity < 1 {
		panic("set capacity must be at least 1")
	}

	return &Set{capacity: capacity}
}

// Capacity returns the maximum number of lines of the set.
func (s *Set) Capacity() int {
	return s.capacity
}

// Len returns the number of resident lines.
func (s *Set) Len() int {
	return len(s.lines)
}

// Full returns true if no free slot is left in the set.
func (s *Set) Full() bool {
	return len(s.lines) >= s.capacity
}

// Find returns the recency position of the line with the given tag.
func (s *Set) Find(tag uint64) (pos int, found bool) {
	for i, l := range s.lines {
		if l.Valid && l.Tag == tag {
			return i, true
		}
	}

	return -1, false
}

// Touch marks the line at pos as the most recently used. The lines that were
// more recent than it shift back by one position.
func (s *Set) Touch(pos int) {
	s.mustBeResident(pos)

	if pos == 0 {
		return
	}

	l := s.lines[pos]
	copy(s.lines[1:pos+1], s.lines[:pos])
	s.lines[0] = l
}

// Insert places a new line with the given tag at the most recently used
// position. The set must not be full.
func (s *Set) Insert(tag uint64) {
	if s.Full() {
		panic("inserting into a full set")
	}

	if s.lines == nil {
		s.lines = make([]Line, 0, s.capacity)
	}

	s.lines = append(s.lines, Line{})
	copy(s.lines[1:], s.lines[:len(s.lines)-1])
	s.lines[0] = Line{Valid: true, Tag: tag}
}

// Replace overwrites the line at pos with the given tag and makes it the
// most recently used line. It returns the line that was overwritten.
func (s *Set) Replace(pos int, tag uint64) Line {
	s.mustBeResident(pos)

	victim := s.lines[pos]
	s.lines[pos] = Line{Valid: true, Tag: tag}
	s.Touch(pos)

	return victim
}

// Tags returns the tags of the resident lines, most recently used first.
func (s *Set) Tags() []uint64 {
	tags := make([]uint64, 0, len(s.lines))
	for _, l := range s.lines {
		tags = append(tags, l.Tag)
	}

	return tags
}

// Reset drops all the lines.
func (s *Set) Reset() {
	s.lines = s.lines[:0]
}

func (s *Set) mustBeResident(pos int) {
	if pos < 0 || pos >= len(s.lines) {
		panic("line position out of range")
	}
}
