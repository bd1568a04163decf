package jobs

import (
	"github.com/vytor/chesscoach/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	analysisPool    *worker.Pool
	analysisService worker.AnalysisServiceInterface
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(analysisPool *worker.Pool, analysisService worker.AnalysisServiceInterface) *WorkerQueue {
	return &WorkerQueue{
		analysisPool:    analysisPool,
		analysisService: analysisService,
	}
}

func (q *WorkerQueue) EnqueueAnalysis(gameID int64, deep bool) error {
	return q.analysisPool.Submit(&worker.AnalyzeGameJob{
		AnalysisService: q.analysisService,
		GameID:          gameID,
		Deep:            deep,
	})
}
