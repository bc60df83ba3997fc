package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/usage"
)

// UsageReportJob logs the daily AI spend summary on a cron schedule.
type UsageReportJob struct {
	monitor *usage.Monitor
}

func NewUsageReportJob(monitor *usage.Monitor) *UsageReportJob {
	return &UsageReportJob{monitor: monitor}
}

func (j *UsageReportJob) Name() string {
	return "usage_report"
}

func (j *UsageReportJob) Run(ctx context.Context) error {
	report := j.monitor.Report()
	logutil.GetLogger(ctx).Info("daily usage report",
		zap.String("date", report.Today.Date),
		zap.Float64("today_cost_usd", report.Today.Cost),
		zap.Int("today_tokens", report.Today.Tokens),
		zap.Int("today_requests", report.Today.Requests),
		zap.Float64("month_cost_usd", report.Month.Cost),
		zap.Int("month_tokens", report.Month.Tokens),
		zap.Int("month_requests", report.Month.Requests),
		zap.Float64("daily_limit_usd", report.DailyLimit))
	return nil
}
