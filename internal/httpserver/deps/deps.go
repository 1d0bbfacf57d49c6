package deps

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
	"github.com/jboss-openshift/openshift-kieserver/internal/servicemethod"
)

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time       // for testing, defaults to time.Now
	AllowedHosts       []string               // Host headers allowed on admin routes
	AllowedCIDRS       []string               // IPs allowed on admin routes
	TrustProxy         bool                   // true if running behind a trusted reverse proxy
	RestBase           string                 // KIE REST base, ex: /services/rest/server
	ConversationHeader string                 // header carrying the conversation id
	Registry           *deployment.Registry   // alias to deployment id table
	Templates          *pathtemplate.Registry // KIE REST path templates
	Methods            *servicemethod.Registry
	Resolver           *redirect.Resolver
	Lookup             *lookup.Client // nil when no backend is configured
	LookupBackend      string         // "none" | "sql" | "redis"
	RedisClient        *redis.Client  // nil unless redis is used
	RelayEnabled       bool           // message relay running
	Metrics            *metrics.Metrics
	Upstream           http.Handler // reverse proxy to the KIE server
}
