package availability

// Selection is an ordered set of "HH:MM" slots. Order is insertion order, which
// is what RangeFill anchors on.
type Selection struct {
	items []string
	index map[string]struct{}
}

func NewSelection(slots ...string) *Selection {
	s := &Selection{index: make(map[string]struct{})}
	for _, slot := range slots {
		s.Add(slot)
	}
	return s
}

// Add appends slot unless it is already selected.
func (s *Selection) Add(slot string) bool {
	if _, ok := s.index[slot]; ok {
		return false
	}
	s.index[slot] = struct{}{}
	s.items = append(s.items, slot)
	return true
}

func (s *Selection) Remove(slot string) bool {
	if _, ok := s.index[slot]; !ok {
		return false
	}
	delete(s.index, slot)
	for i, item := range s.items {
		if item == slot {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips membership and returns whether slot is selected afterwards.
func (s *Selection) Toggle(slot string) bool {
	if s.Remove(slot) {
		return false
	}
	s.Add(slot)
	return true
}

func (s *Selection) Contains(slot string) bool {
	_, ok := s.index[slot]
	return ok
}

func (s *Selection) Last() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return s.items[len(s.items)-1], true
}

func (s *Selection) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Len() int {
	return len(s.items)
}

func (s *Selection) Clear() {
	s.items = nil
	s.index = make(map[string]struct{})
}

// RangeFill selects every selectable slot of daySlots between the last selected
// slot and target, inclusive, in either direction. With nothing selected yet, or
// an anchor outside daySlots, it behaves like selecting target alone.
// It returns the slots that were newly added.
func (s *Selection) RangeFill(daySlots []string, target string, selectable func(string) bool) []string {
	targetIdx := indexOf(daySlots, target)
	if targetIdx < 0 {
		return nil
	}

	anchorIdx := -1
	if last, ok := s.Last(); ok {
		anchorIdx = indexOf(daySlots, last)
	}
	if anchorIdx < 0 {
		anchorIdx = targetIdx
	}

	lo, hi := min(anchorIdx, targetIdx), max(anchorIdx, targetIdx)

	var added []string
	for _, slot := range daySlots[lo : hi+1] {
		if !selectable(slot) {
			continue
		}
		if s.Add(slot) {
			added = append(added, slot)
		}
	}
	return added
}

func indexOf(slots []string, slot string) int {
	for i, s := range slots {
		if s == slot {
			return i
		}
	}
	return -1
}
