package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockSweep triggers the scheduled low-stock sweep.
	TaskStockSweep = "inventory:stock_sweep"
)

// StockSweepPayload carries scheduling metadata for a sweep run.
type StockSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockSweepTask constructs an Asynq task for the stock sweep.
func NewStockSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockSweep, body, asynq.Queue(QueueDefault)), nil
}

// Sweeper runs a sweep over the inventory and reports how many
// notifications were produced.
type Sweeper interface {
	RunSweep(ctx context.Context) (int, error)
}

// StockSweepJob adapts the notification sweep to an Asynq handler.
type StockSweepJob struct {
	sweeper Sweeper
	logger  *slog.Logger
}

// NewStockSweepJob constructs the sweep handler.
func NewStockSweepJob(sweeper Sweeper, logger *slog.Logger) *StockSweepJob {
	return &StockSweepJob{sweeper: sweeper, logger: logger}
}

// Handle processes TaskStockSweep tasks.
func (j *StockSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	runID := uuid.NewString()
	start := time.Now()
	notified, err := j.sweeper.RunSweep(ctx)
	if err != nil {
		j.logger.Error("stock sweep failed", slog.String("run_id", runID), slog.Any("error", err))
		return err
	}
	j.logger.Info("stock sweep done",
		slog.String("run_id", runID),
		slog.Int("notified", notified),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
