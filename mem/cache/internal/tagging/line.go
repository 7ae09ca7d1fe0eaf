package tagging

// A Line is one slot of a set. It carries no data, only the identity of the
// block that occupies it.
type Line struct {
	Valid bool
	Tag   uint64
}
