package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueAnalysis(gameID int64, deep bool) error
}
