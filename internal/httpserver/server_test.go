package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jboss-openshift/openshift-kieserver/internal/coder"
	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/handlers"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
	"github.com/jboss-openshift/openshift-kieserver/internal/servicemethod"
)

func newDeps(t *testing.T, upstream string) deps.Deps {
	t.Helper()
	log := logger.NewNop()

	reg, err := deployment.New(deployment.Options{
		Repo:            t.TempDir(),
		ServerID:        "kieserver",
		Mappings:        deployment.ParseMappings("c1=g1:a1:v1|c2=g2:a2:v2|c2=g2:a2:v2.1"),
		RedirectEnabled: true,
	}, log)
	if err != nil {
		t.Fatal(err)
	}
	client := lookup.NewClient(nil, true, log)

	d := deps.Deps{
		Logger:             log,
		StartTime:          time.Now(),
		Version:            "test",
		TimeNow:            time.Now,
		RestBase:           "/services/rest/server",
		ConversationHeader: "X-KIE-ConversationId",
		Registry:           reg,
		Templates:          pathtemplate.NewRegistry(pathtemplate.DefaultRoutes()),
		Methods:            servicemethod.Default(log),
		Resolver:           redirect.New(reg, client, redirect.GuardAliasOrConfig, log),
		Lookup:             client,
		LookupBackend:      "none",
		Metrics:            metrics.New(),
	}
	if upstream != "" {
		up, err := handlers.NewUpstream(upstream, log)
		if err != nil {
			t.Fatal(err)
		}
		d.Upstream = up
	}
	return d
}

func TestProxyRewritesOntoUpstream(t *testing.T) {
	var gotPath, gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHost = r.Host
		_, _ = io.WriteString(w, "kie")
	}))
	defer upstream.Close()

	router := NewRouter(newDeps(t, upstream.URL), 5*time.Second)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services/rest/server/containers/c2/tasks/4", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "kie" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	want := "/services/rest/server/containers/" + coder.MustSumCoder(coder.MD5).Encode("c2=g2:a2:v2.1") + "/tasks/4"
	if gotPath != want {
		t.Errorf("upstream path = %s, want %s", gotPath, want)
	}
	if !strings.HasPrefix(upstream.URL, "http://"+gotHost) {
		t.Errorf("upstream host = %s, want %s", gotHost, upstream.URL)
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	router := NewRouter(newDeps(t, url), 5*time.Second)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services/rest/server/containers", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	router := NewRouter(newDeps(t, ""), 5*time.Second)

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/healthz", http.StatusOK, "application/json", `"status":"ok"`},
		{"/readyz", http.StatusOK, "application/json", `"ready":true`},
		{"/infra", http.StatusOK, "application/json", `"routing_mode":"full"`},
		{"/state", http.StatusOK, "application/xml", "<kie-server-state>"},
		{"/state?format=env", http.StatusOK, "text/plain; charset=utf-8", "c2=g2:a2:v2.1|c2=g2:a2:v2"},
		{"/state?format=json", http.StatusOK, "application/json", "org.kie.server.repo"},
		{"/state?format=yaml", http.StatusOK, "application/yaml", "org.kie.server.id"},
		{"/state?format=toml", http.StatusBadRequest, "", "unknown format"},
		{"/routes", http.StatusOK, "application/json", `"template":"/containers/{id}"`},
		{"/metrics", http.StatusOK, "", "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("content type = %q, want %q", rec.Header().Get("Content-Type"), tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestAdminRoutesGuarded(t *testing.T) {
	d := newDeps(t, "")
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	d.AllowedHosts = []string{"kie.example.com"}
	router := NewRouter(d, 5*time.Second)

	tests := []struct {
		name   string
		path   string
		remote string
		host   string
		status int
	}{
		{"denied ip", "/state", "192.168.1.10:5555", "kie.example.com", http.StatusForbidden},
		{"denied host", "/state", "10.1.2.3:5555", "evil.example.com", http.StatusForbidden},
		{"allowed", "/state", "10.1.2.3:5555", "kie.example.com", http.StatusOK},
		{"probe ignores host", "/healthz", "10.1.2.3:5555", "evil.example.com", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.RemoteAddr = tt.remote
			req.Host = tt.host
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestInfraCritical(t *testing.T) {
	d := newDeps(t, "")
	empty, err := deployment.New(deployment.Options{Repo: t.TempDir()}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	d.Registry = empty

	rec := httptest.NewRecorder()
	handlers.Infra(d)(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))

	var resp struct {
		RoutingMode string `json:"routing_mode"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.RoutingMode != "critical" {
		t.Errorf("routing_mode = %s, want critical", resp.RoutingMode)
	}
}
