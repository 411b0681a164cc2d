package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store answers but the collection cannot be read.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Store     string
	Documents int
	Checks    map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	docs  DocumentCounter
	store string
}

// New creates a Service. docs can be nil; store names the backing engine.
func New(db DBPinger, docs DocumentCounter, store string) *Service {
	return &Service{db: db, docs: docs, store: store}
}

// Check pings the store, then counts the collection when the store is up.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Store: s.store, Checks: make(map[string]CheckResult)}

	if err := s.db.Ping(ctx); err != nil {
		r.Checks["database"] = CheckError
		r.Status = Unhealthy
		return r
	}
	r.Checks["database"] = CheckOK

	if s.docs != nil {
		n, err := s.docs.Count(ctx)
		if err != nil {
			r.Checks["collection"] = CheckError
			r.Status = Degraded
			return r
		}
		r.Checks["collection"] = CheckOK
		r.Documents = n
	}

	return r
}
