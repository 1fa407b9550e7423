package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deksa89/argo-connectors/internal/index"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/metrics"
)

// Harvest is the view of the scheduler the ops API needs.
type Harvest interface {
	Ready() bool
	LastPass() time.Time
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time      // for testing, defaults to time.Now
	AllowedCIDRS  []string              // IPs allowed to access the ops endpoints
	TrustProxy    bool                  // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RedisClient   redis.UniversalClient // nil when snapshots are not published to Redis
	MemoryIndex   *index.MemoryIndex    // last snapshot and state per customer job task
	Metrics       *metrics.Metrics      // served on /metrics
	Harvest       Harvest               // readiness of the harvest loop
	ReloadTrigger chan struct{}         // Channel to trigger a harvest pass
	ReloadToken   string                // bearer token for POST /reload, empty disables it
}
