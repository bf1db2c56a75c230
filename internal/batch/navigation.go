package batch

// Position describes where a record sits inside its ordered batch.
type Position struct {
	Index  int
	Total  int
	PrevID *uint
	NextID *uint
}

// Current returns the 1-based position used for display.
func (p Position) Current() int {
	return p.Index + 1
}

// Locate derives the navigation position of id within an already ordered list.
// An id that is not present resolves to the first slot.
func Locate(ordered []Record, id uint) Position {
	pos := Position{Total: len(ordered)}
	for i, record := range ordered {
		if record.ID == id {
			pos.Index = i
			break
		}
	}

	if pos.Index > 0 {
		prev := ordered[pos.Index-1].ID
		pos.PrevID = &prev
	}
	if pos.Index < pos.Total-1 {
		next := ordered[pos.Index+1].ID
		pos.NextID = &next
	}

	return pos
}
