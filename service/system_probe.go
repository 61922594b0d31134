package service

import (
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/view"
	"github.com/go-pg/pg/v10"
)

// SystemProbe reports the runtime health of the service's backing systems.
// Report generation takes it as a dependency so report code never touches
// connection globals directly.
type SystemProbe interface {
	Snapshot() view.SystemSnapshot
}

func NewSystemProbe(cp db.ConnectionProvider, op client.OlricProvider, executorId string) SystemProbe {
	return &systemProbeImpl{
		cp:         cp,
		op:         op,
		executorId: executorId,
		startedAt:  time.Now(),
	}
}

type systemProbeImpl struct {
	cp         db.ConnectionProvider
	op         client.OlricProvider
	executorId string
	startedAt  time.Time
}

func (s *systemProbeImpl) Snapshot() view.SystemSnapshot {
	now := time.Now()
	snapshot := view.SystemSnapshot{
		ExecutorId:    s.executorId,
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		TakenAt:       now,
	}

	if s.cp != nil {
		var one int
		_, err := s.cp.GetConnection().QueryOne(pg.Scan(&one), "select 1")
		snapshot.DbHealthy = err == nil
	}
	if s.op != nil {
		snapshot.CacheHealthy = s.op.Get() != nil
	}
	return snapshot
}
