package domain

func cloneIDs(ids []CardID) []CardID {
	if ids == nil {
		return nil
	}
	out := make([]CardID, len(ids))
	copy(out, ids)
	return out
}

func cloneInts(v []int) []int {
	if v == nil {
		return nil
	}
	out := make([]int, len(v))
	copy(out, v)
	return out
}

// indexOf returns the position of id in ids or -1.
func indexOf(ids []CardID, id CardID) int {
	for i, c := range ids {
		if c == id {
			return i
		}
	}
	return -1
}

// removeAt returns a new slice without position i.
func removeAt(ids []CardID, i int) []CardID {
	out := make([]CardID, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}

func containsInt(v []int, x int) bool {
	for _, e := range v {
		if e == x {
			return true
		}
	}
	return false
}

func withoutInt(v []int, x int) []int {
	out := make([]int, 0, len(v))
	for _, e := range v {
		if e != x {
			out = append(out, e)
		}
	}
	return out
}
