package metrics

import (
	"log/slog"
	"sync"
	"time"

	utils "realtime-rank/internal/utils"
)

// Metrics counts ranking cycles across the life of the process.
type Metrics struct {
	mu                 sync.Mutex
	totalCycles        int
	successfulCycles   int
	failedCycles       int
	emptyCycles        int
	totalExecutionTime time.Duration
	executionCount     int
	lastRanked         int
}

type Summary struct {
	TotalCycles      int    `json:"total_cycles"`
	SuccessfulCycles int    `json:"successful_cycles"`
	FailedCycles     int    `json:"failed_cycles"`
	EmptyCycles      int    `json:"empty_cycles"`
	LastRanked       int    `json:"last_ranked"`
	AvgExecutionTime string `json:"avg_execution_time"`
}

func New() *Metrics {
	return &Metrics{}
}

// RecordSuccess records a completed cycle that ranked the given number of keywords.
func (m *Metrics) RecordSuccess(duration time.Duration, ranked int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalCycles++
	m.successfulCycles++
	if ranked == 0 {
		m.emptyCycles++
	}
	m.lastRanked = ranked
	m.totalExecutionTime += duration
	m.executionCount++
}

func (m *Metrics) RecordFailure(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalCycles++
	m.failedCycles++
	m.totalExecutionTime += duration
	m.executionCount++
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	avgExecTime := time.Duration(0)
	if m.executionCount > 0 {
		avgExecTime = m.totalExecutionTime / time.Duration(m.executionCount)
	}

	return Summary{
		TotalCycles:      m.totalCycles,
		SuccessfulCycles: m.successfulCycles,
		FailedCycles:     m.failedCycles,
		EmptyCycles:      m.emptyCycles,
		LastRanked:       m.lastRanked,
		AvgExecutionTime: utils.FormatDuration(avgExecTime),
	}
}

func (m *Metrics) PrintMetrics(log *slog.Logger) {
	s := m.Summary()

	log.Info("metrics",
		slog.Int("total_cycles", s.TotalCycles),
		slog.Int("successful_cycles", s.SuccessfulCycles),
		slog.Int("failed_cycles", s.FailedCycles),
		slog.Int("empty_cycles", s.EmptyCycles),
		slog.Int("last_ranked", s.LastRanked),
		slog.String("avg_execution_time", s.AvgExecutionTime),
	)
}
