package utils

import "sync"

// ParallelMap 使用最多 workers 个 goroutine 并发执行 fn，结果顺序与输入一致。
// 输入为空时返回空切片；只有一个元素或 workers <= 1 时直接在当前 goroutine 中执行。
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	result := make([]R, len(input))
	if len(input) == 0 {
		return result
	}
	if workers <= 1 || len(input) == 1 {
		for i, v := range input {
			result[i] = fn(v)
		}
		return result
	}
	if workers > len(input) {
		workers = len(input)
	}

	// 每个 worker 按下标取任务，结果写回对应位置，无需额外排序
	indexCh := make(chan int, len(input))
	for i := range input {
		indexCh <- i
	}
	close(indexCh)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexCh {
				result[i] = fn(input[i])
			}
		}()
	}
	wg.Wait()
	return result
}
