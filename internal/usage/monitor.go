package usage

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/model"
)

// Monitor aggregates finished-request spend into daily and monthly
// buckets. Process-wide and safe for concurrent requests; alerts are
// observational only.
type Monitor struct {
	mu           sync.Mutex
	daily        map[string]*model.DayUsage
	monthly      map[string]*model.DayUsage
	sessionAlert float64
	dailyAlert   float64
	now          func() time.Time
}

func NewMonitor(sessionAlertUSD, dailyAlertUSD float64) *Monitor {
	return &Monitor{
		daily:        map[string]*model.DayUsage{},
		monthly:      map[string]*model.DayUsage{},
		sessionAlert: sessionAlertUSD,
		dailyAlert:   dailyAlertUSD,
		now:          time.Now,
	}
}

func bump(m map[string]*model.DayUsage, key string, cost float64, tokens int) *model.DayUsage {
	d := m[key]
	if d == nil {
		d = &model.DayUsage{Date: key}
		m[key] = d
	}
	d.Cost += cost
	d.Tokens += tokens
	d.Requests++
	return d
}

// FinishRequest folds one completed ledger into the rollups and raises
// threshold alerts.
func (m *Monitor) FinishRequest(ctx context.Context, l *Ledger) {
	cost := l.TotalCost()
	tokens := l.TotalTokens()
	now := m.now()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")

	m.mu.Lock()
	dayTotal := bump(m.daily, day, cost, tokens).Cost
	bump(m.monthly, month, cost, tokens)
	m.mu.Unlock()

	logger := logutil.GetLogger(ctx)
	if cost > m.sessionAlert {
		logger.Warn("request cost exceeded alert threshold",
			zap.Float64("cost_usd", cost),
			zap.Float64("threshold_usd", m.sessionAlert))
	}
	if dayTotal > m.dailyAlert {
		logger.Warn("daily cost exceeded alert threshold",
			zap.String("day", day),
			zap.Float64("cost_usd", dayTotal),
			zap.Float64("threshold_usd", m.dailyAlert))
	}
}

// Report snapshots today, the current month and a 7 day trend.
func (m *Monitor) Report() model.UsageReport {
	now := m.now()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")

	m.mu.Lock()
	defer m.mu.Unlock()

	report := model.UsageReport{
		Today:        model.DayUsage{Date: day},
		Month:        model.DayUsage{Date: month},
		DailyLimit:   m.dailyAlert,
		SessionLimit: m.sessionAlert,
	}
	if d := m.daily[day]; d != nil {
		report.Today = *d
	}
	if d := m.monthly[month]; d != nil {
		report.Month = *d
	}
	for i := 6; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format("2006-01-02")
		entry := model.DayUsage{Date: key}
		if d := m.daily[key]; d != nil {
			entry = *d
		}
		report.Trend = append(report.Trend, entry)
	}
	return report
}
