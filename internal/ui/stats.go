package ui

import "sync/atomic"

// Stats accumulates the download run totals printed at the end.
type Stats struct {
	TotalPages    atomic.Int64
	TotalBytes    atomic.Int64
	TotalChapters atomic.Int64
}
