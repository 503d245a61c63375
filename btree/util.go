package btree

import "slices"

// findLastLEQ returns the greatest index i such that keys[i] <= target,
// or -1 if no such index exists. keys must be sorted ascending. Used
// both for routing in internal nodes and for positioning within
// leaves.
func findLastLEQ(keys []int32, target int32) int {
	lo, hi := 0, len(keys)-1
	last := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if keys[mid] <= target {
			last = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return last
}

// indexOfChild returns the index of id within children, or -1 if
// absent.
func indexOfChild(children []int64, id int64) int {
	for i, c := range children {
		if c == id {
			return i
		}
	}
	return -1
}

func insertInt32(s []int32, pos int, v int32) []int32 {
	return slices.Insert(s, pos, v)
}

func insertInt64(s []int64, pos int, v int64) []int64 {
	return slices.Insert(s, pos, v)
}

func insertBytes(s [][]byte, pos int, v []byte) [][]byte {
	return slices.Insert(s, pos, v)
}

func removeInt32(s []int32, pos int) []int32 {
	return slices.Delete(s, pos, pos+1)
}

func removeInt64(s []int64, pos int) []int64 {
	return slices.Delete(s, pos, pos+1)
}

func removeBytes(s [][]byte, pos int) [][]byte {
	return slices.Delete(s, pos, pos+1)
}
