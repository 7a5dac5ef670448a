package xmfile

// maxAllocatorBlocks limits the memory a parser keeps between runs.
const maxAllocatorBlocks = 6

// blockAllocator hands out subslices of a few large blocks.
// Pattern rows and their note IDs are allocated from here, so parsing
// the same parser twice reuses the memory of the previous module.
//
// Everything handed out is invalidated by reset.
type blockAllocator[T any] struct {
	blocks    [][]T
	used      []int
	blockSize int
}

func (a *blockAllocator[T]) init(blockSize int) {
	a.blocks = make([][]T, 0, maxAllocatorBlocks)
	a.used = make([]int, 0, maxAllocatorBlocks)
	a.blockSize = blockSize
}

func (a *blockAllocator[T]) reset() {
	for i := range a.used {
		a.used[i] = 0
	}
}

func (a *blockAllocator[T]) alloc(n int) []T {
	if n > a.blockSize {
		return make([]T, n)
	}

	for i, block := range a.blocks {
		if len(block)-a.used[i] >= n {
			return a.take(i, n)
		}
	}

	if len(a.blocks) == maxAllocatorBlocks {
		return make([]T, n)
	}
	a.blocks = append(a.blocks, make([]T, a.blockSize))
	a.used = append(a.used, 0)
	return a.take(len(a.blocks)-1, n)
}

func (a *blockAllocator[T]) take(block, n int) []T {
	start := a.used[block]
	a.used[block] += n
	// The capacity is capped: appending to the result must not
	// overwrite the neighbouring allocation.
	return a.blocks[block][start : start+n : start+n]
}
