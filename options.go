package oceandb

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/db"
	dbElastic "github.com/kailas-cloud/oceandb/internal/db/elastic"
	dbMemory "github.com/kailas-cloud/oceandb/internal/db/memory"
	dbRedis "github.com/kailas-cloud/oceandb/internal/db/redis"
)

// Drivers.
const (
	DriverElasticsearch = "elasticsearch"
	DriverRedis         = "redis"
	DriverMemory        = "memory"
)

const (
	defaultIndex            = "oceandb"
	defaultReadinessTimeout = 30 * time.Second
)

// Options configures Open. Zero values select the defaults.
type Options struct {
	// Driver is one of DriverElasticsearch (default), DriverRedis or DriverMemory.
	Driver string
	// Addrs are "host:port" pairs or full URLs.
	Addrs    []string
	Username string
	Password string
	// Index names the collection documents are stored in. Default "oceandb".
	Index string

	SSL            bool
	VerifyCerts    bool
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string

	// KeyPrefix and DB apply to the redis driver.
	KeyPrefix string
	DB        int

	// Registry selects the field registry variant: "current" (default) or "legacy".
	Registry        string
	DefaultPageSize int
	ListChunkSize   int
	TextSortField   string

	ReadinessTimeout time.Duration
	// SkipBootstrap leaves index creation to the operator.
	SkipBootstrap bool
	// Instrument records prometheus metrics for every store call.
	Instrument bool

	Logger *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Driver == "" {
		o.Driver = DriverElasticsearch
	}
	if o.Index == "" {
		o.Index = defaultIndex
	}
	if o.ReadinessTimeout <= 0 {
		o.ReadinessTimeout = defaultReadinessTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func createStore(o *Options) (db.Store, error) {
	switch o.Driver {
	case DriverElasticsearch:
		s, err := dbElastic.NewStore(dbElastic.Config{
			Addrs:          o.Addrs,
			Username:       o.Username,
			Password:       o.Password,
			SSL:            o.SSL,
			VerifyCerts:    o.VerifyCerts,
			CACertPath:     o.CACertPath,
			ClientCertPath: o.ClientCertPath,
			ClientKeyPath:  o.ClientKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("oceandb: create elasticsearch store: %w", err)
		}
		return s, nil
	case DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    o.Addrs,
			Username: o.Username,
			Password: o.Password,
			DB:       o.DB,
			Prefix:   o.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("oceandb: create redis store: %w", err)
		}
		return s, nil
	case DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("oceandb: unknown driver %q", o.Driver)
	}
}
