package domain

import "time"

// Reprice job statuses.
const (
	JobStatusRunning  = "RUNNING"
	JobStatusFinished = "FINISHED"
	JobStatusFailed   = "FAILED"
)

// RepriceJob is the execution record of one batch run.
type RepriceJob struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	Status         string     `gorm:"column:status;type:text;not null" json:"status"`
	ExpressMode    bool       `gorm:"column:express_mode" json:"express_mode"`
	ProductsTotal  int        `gorm:"column:products_total" json:"products_total"`
	ProductsFailed int        `gorm:"column:products_failed" json:"products_failed"`
	DecisionsTotal int        `gorm:"column:decisions_total" json:"decisions_total"`
	PricesPushed   int        `gorm:"column:prices_pushed" json:"prices_pushed"`
	StartedAt      time.Time  `gorm:"column:started_at;autoCreateTime" json:"started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (RepriceJob) TableName() string {
	return "reprice_jobs"
}
