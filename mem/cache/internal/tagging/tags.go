package tagging

// A TagArray keeps track of which block occupies which line of every set.
type TagArray interface {
	// NumSets returns the number of sets.
	NumSets() int

	// NumWays returns the number of lines per set.
	NumWays() int

	// Lookup reports whether the set holds the tag. A hit makes the line the
	// most recently used one.
	Lookup(setID int, tag uint64) bool

	// Admit installs the tag into the set after a failed lookup. If the set
	// is full, a victim is evicted and returned.
	Admit(setID int, tag uint64) (victim Line, evicted bool)

	// GetSet returns the set with the given index.
	GetSet(setID int) *Set

	// Reset invalidates all the lines.
	Reset()
}

// NewTagArray creates a tag array with numSets sets of numWays lines each.
func NewTagArray(
	numSets int,
	numWays int,
	victimFinder VictimFinder,
) TagArray {
	t := &tagArrayImpl{
		numSets:      numSets,
		numWays:      numWays,
		victimFinder: victimFinder,
	}

	t.Reset()

	return t
}

type tagArrayImpl struct {
	numSets      int
	numWays      int
	victimFinder VictimFinder
	sets         []Set
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

func (t *tagArrayImpl) GetSet(setID int) *Set {
	return &t.sets[setID]
}

func (t *tagArrayImpl) Lookup(setID int, tag uint64) bool {
	set := t.GetSet(setID)

	pos, found := set.Find(tag)
	if !found {
		return false
	}

	set.Touch(pos)

	return true
}

func (t *tagArrayImpl) Admit(setID int, tag uint64) (Line, bool) {
	set := t.GetSet(setID)

	if _, found := set.Find(tag); found {
		panic("admitting a tag that is already resident")
	}

	if !set.Full() {
		set.Insert(tag)
		return Line{}, false
	}

	pos, found := t.victimFinder.FindVictim(set)
	if !found {
		panic("no victim in a full set")
	}

	return set.Replace(pos, tag), true
}

// Reset drops every line. Line storage is allocated when a set receives its
// first line.
func (t *tagArrayImpl) Reset() {
	t.sets = make([]Set, t.numSets)
	for i := range t.sets {
		t.sets[i].capacity = t.numWays
	}
}
