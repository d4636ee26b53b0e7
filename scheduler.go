package blosc

// scheduler.go fans a buffer's blocks out across a worker team and
// reassembles them in the container's on-disk order.
//
// Compression workers race each other — block 7 may finish before
// block 2 — but the container format demands their compressed bytes
// appear in strictly ascending block-index order, so a single
// assembler goroutine holds a reorder buffer keyed by block index and
// only appends a worker's output once every lower-indexed block has
// already been appended. Decompression has no such constraint: each
// block's destination range is already known from its index and
// blocksize, so workers write directly into the shared destination
// slice and no reordering is needed.
//
// This mirrors the worker-pool-plus-result-channel shape used for
// parallel LZ4 block compression elsewhere in the ecosystem, adapted
// here to preserve strict ordering on the compress side.

import (
	"sync"
	"sync/atomic"
)

type blockJob struct {
	index int
	src   []byte
}

type blockResult struct {
	index int
	data  []byte
	n     int
}

// scheduleCompress compresses nbytes of src, decomposed into nblocks
// blocks of blocksize (the last one truncated), using numthreads
// workers. It writes the bstarts table and block payloads into dst
// starting at payloadOffset, returning the total number of payload
// bytes written, or a negative internal code.
func scheduleCompress(ctx *Context, src, dst []byte, bstartsBuf []byte, blocksize, nblocks, payloadOffset int) int {
	giveup := int32(0)

	worstCase := blockCompressedBound(ctx.effectiveTypeSize(), blocksize)

	compressOne := func(idx int) blockResult {
		start := idx * blocksize
		end := start + blocksize
		if end > len(src) {
			end = len(src)
		}
		blk := src[start:end]

		leftover := end-start != blocksize
		buf := make([]byte, worstCase+4)
		scratch := make([]byte, len(blk))

		var n int
		if leftover {
			n = compressLeftoverBlock(ctx, blk, buf, scratch)
		} else {
			n = compressBlock(ctx.Compressor, ctx.Level, ctx.Shuffle, ctx.effectiveTypeSize(), blk, buf, scratch)
		}
		return blockResult{index: idx, data: buf, n: n}
	}

	if ctx.NumThreads <= 1 || nblocks <= 1 {
		pos := payloadOffset
		for i := 0; i < nblocks; i++ {
			r := compressOne(i)
			if r.n < 0 {
				return r.n
			}
			if pos+r.n > len(dst) {
				return codeDestTooSmall
			}
			writeBstart(bstartsBuf, i, uint32(pos))
			copy(dst[pos:], r.data[:r.n])
			pos += r.n
		}
		return pos - payloadOffset
	}

	jobs := make(chan blockJob, nblocks)
	results := make(chan blockResult, nblocks)

	var wg sync.WaitGroup
	wg.Add(ctx.NumThreads)
	for w := 0; w < ctx.NumThreads; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				if atomic.LoadInt32(&giveup) != 0 {
					results <- blockResult{index: job.index, n: codeOverflow}
					continue
				}
				results <- compressOne(job.index)
			}
		}()
	}
	for i := 0; i < nblocks; i++ {
		jobs <- blockJob{index: i}
	}
	close(jobs)

	pending := make(map[int]blockResult, nblocks)
	next := 0
	pos := payloadOffset
	var failCode int32
	for received := 0; received < nblocks; received++ {
		r := <-results
		pending[r.index] = r
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if r.n < 0 {
				atomic.StoreInt32(&giveup, 1)
				atomic.CompareAndSwapInt32(&failCode, 0, int32(r.n))
				continue
			}
			if atomic.LoadInt32(&giveup) != 0 {
				continue
			}
			if pos+r.n > len(dst) {
				atomic.StoreInt32(&giveup, 1)
				atomic.CompareAndSwapInt32(&failCode, 0, int32(codeDestTooSmall))
				continue
			}
			writeBstart(bstartsBuf, r.index, uint32(pos))
			copy(dst[pos:], r.data[:r.n])
			pos += r.n
		}
	}
	wg.Wait()

	if atomic.LoadInt32(&giveup) != 0 {
		return int(failCode)
	}
	return pos - payloadOffset
}

// scheduleDecompress reverses scheduleCompress: each block's source
// range comes from the bstarts table and each destination range from
// its index and blocksize, so workers can proceed independently.
func scheduleDecompress(ctx *Context, codec Codec, shuffleMode Shuffle, typesize int, src []byte, bstartsBuf []byte, dst []byte, blocksize, nblocks int, cbytes int) int {
	giveup := int32(0)
	var failCode int32

	decompressOne := func(idx int) int {
		start := idx * blocksize
		end := start + blocksize
		if end > len(dst) {
			end = len(dst)
		}
		blockStart := int(readBstart(bstartsBuf, idx))
		var blockEnd int
		if idx == nblocks-1 {
			blockEnd = cbytes
		} else {
			blockEnd = int(readBstart(bstartsBuf, idx+1))
		}
		if blockStart < 0 || blockEnd > len(src) || blockStart > blockEnd {
			return codeCorrupt
		}

		leftover := end-start != blocksize
		mode := shuffleMode
		ts := typesize
		if leftover {
			mode = NoShuffle
			ts = 1
		}

		scratch := make([]byte, end-start)
		n := decompressBlock(codec, mode, ts, src[blockStart:blockEnd], dst[start:end], scratch)
		if n < 0 {
			return n
		}
		return 0
	}

	if ctx.NumThreads <= 1 || nblocks <= 1 {
		for i := 0; i < nblocks; i++ {
			if rc := decompressOne(i); rc < 0 {
				return rc
			}
		}
		return 0
	}

	jobs := make(chan int, nblocks)
	var wg sync.WaitGroup
	wg.Add(ctx.NumThreads)
	for w := 0; w < ctx.NumThreads; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if atomic.LoadInt32(&giveup) != 0 {
					continue
				}
				if rc := decompressOne(idx); rc < 0 {
					atomic.StoreInt32(&giveup, 1)
					atomic.CompareAndSwapInt32(&failCode, 0, int32(rc))
				}
			}
		}()
	}
	for i := 0; i < nblocks; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if atomic.LoadInt32(&giveup) != 0 {
		return int(failCode)
	}
	return 0
}

// compressLeftoverBlock compresses the final, possibly undersized
// block with splitting and shuffling disabled.
func compressLeftoverBlock(ctx *Context, blk, dst, scratch []byte) int {
	return compressBlock(ctx.Compressor, ctx.Level, NoShuffle, 1, blk, dst, scratch)
}
