package mw

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jboss-openshift/openshift-kieserver/internal/coder"
	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
)

const (
	base   = "/services/rest/server"
	header = "X-KIE-ConversationId"
)

type captured struct {
	path   string
	query  string
	body   string
	header string
	calls  int
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls++
		c.path = r.URL.Path
		c.query = r.URL.RawQuery
		c.header = r.Header.Get(header)
		if r.Body != nil {
			b, _ := io.ReadAll(r.Body)
			c.body = string(b)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func newResolver(t *testing.T) *redirect.Resolver {
	t.Helper()
	reg, err := deployment.New(deployment.Options{
		Repo:            t.TempDir(),
		Mappings:        deployment.ParseMappings("c1=g1:a1:v1|c2=g2:a2:v2|c2=g2:a2:v2.1"),
		RedirectEnabled: true,
	}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return redirect.New(reg, nil, redirect.GuardAliasOrConfig, nil)
}

func newRedirect(res Resolver) func(http.Handler) http.Handler {
	return Redirect(RedirectOptions{
		Base:               base,
		ConversationHeader: header,
		Templates:          pathtemplate.NewRegistry(pathtemplate.DefaultRoutes()),
		Resolver:           res,
		Metrics:            metrics.New(),
	}, logger.NewNop())
}

func md5(s string) string { return coder.MustSumCoder(coder.MD5).Encode(s) }

func TestRedirectRewritesPath(t *testing.T) {
	c1 := md5("c1=g1:a1:v1")
	c2 := md5("c2=g2:a2:v2.1")

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "alias goes to latest release",
			path: base + "/containers/c2/tasks/12",
			want: base + "/containers/" + c2 + "/tasks/12",
		},
		{
			name: "container config",
			path: base + "/containers/c1=g1:a1:v1/processes/instances/3",
			want: base + "/containers/" + c1 + "/processes/instances/3",
		},
		{
			name: "deployment id untouched",
			path: base + "/containers/" + c1 + "/processes/instances/3",
			want: base + "/containers/" + c1 + "/processes/instances/3",
		},
		{
			name: "unknown alias untouched",
			path: base + "/containers/c9/processes/instances/3",
			want: base + "/containers/c9/processes/instances/3",
		},
		{
			name: "outside base untouched",
			path: "/other/containers/c2/tasks/12",
			want: "/other/containers/c2/tasks/12",
		},
	}

	h := newRedirect(newResolver(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			rec := httptest.NewRecorder()
			h(capture(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if got.calls != 1 {
				t.Fatalf("next called %d times", got.calls)
			}
			if got.path != tt.want {
				t.Errorf("path = %s, want %s", got.path, tt.want)
			}
		})
	}
}

func TestRedirectRewritesQuery(t *testing.T) {
	c2 := md5("c2=g2:a2:v2.1")
	var got captured

	req := httptest.NewRequest(http.MethodGet, base+"/queries/processes/instances/5?containerId=c2&page=0", nil)
	newRedirect(newResolver(t))(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if got.path != base+"/queries/processes/instances/5" {
		t.Errorf("path changed: %s", got.path)
	}
	if want := "containerId=" + c2 + "&page=0"; got.query != want {
		t.Errorf("query = %s, want %s", got.query, want)
	}
}

func TestRedirectKeepsQueryLayout(t *testing.T) {
	c2 := md5("c2=g2:a2:v2.1")
	var got captured

	req := httptest.NewRequest(http.MethodGet, base+"/queries/processes/instances/5?page=0&containerId=c2&sort=b%20a&flag&z=1", nil)
	newRedirect(newResolver(t))(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if want := "page=0&containerId=" + c2 + "&sort=b%20a&flag&z=1"; got.query != want {
		t.Errorf("query = %s, want %s", got.query, want)
	}
}

func TestReplaceParam(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"only pair", "containerId=c2", "containerId=dep", true},
		{"middle pair", "a=1&containerId=c2&b=%2F", "a=1&containerId=dep&b=%2F", true},
		{"repeated", "containerId=c2&x=1&containerId=c3", "containerId=dep&x=1&containerId=dep", true},
		{"escaped key", "container%49d=c2&x=1", "container%49d=dep&x=1", true},
		{"no value", "x=1&containerId", "x=1&containerId=dep", true},
		{"absent", "a=1&b=2", "a=1&b=2", false},
		{"prefix only", "containerIdX=c2", "containerIdX=c2", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := replaceParam(tt.raw, ContainerIDParam, "dep")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("replaceParam(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRedirectKeepsFormLayout(t *testing.T) {
	c2 := md5("c2=g2:a2:v2.1")
	var got captured

	req := httptest.NewRequest(http.MethodPost, base+"/admin/commands", strings.NewReader("name=a+b&containerId=c2&extra=%7E"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	newRedirect(newResolver(t))(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if want := "name=a+b&containerId=" + c2 + "&extra=%7E"; got.body != want {
		t.Errorf("body = %s, want %s", got.body, want)
	}
}

func TestRedirectRewritesForm(t *testing.T) {
	c2 := md5("c2=g2:a2:v2.1")
	var got captured

	req := httptest.NewRequest(http.MethodPost, base+"/admin/commands", strings.NewReader("containerId=c2&name=a+b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	newRedirect(newResolver(t))(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if want := "containerId=" + c2 + "&name=a+b"; got.body != want {
		t.Errorf("body = %s, want %s", got.body, want)
	}
}

func TestRedirectKeepsOtherBodies(t *testing.T) {
	var got captured
	payload := `{"containerId":"c2"}`

	req := httptest.NewRequest(http.MethodPost, base+"/containers/c2/processes/p1/instances", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newRedirect(newResolver(t))(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if got.body != payload {
		t.Errorf("body = %s, want %s", got.body, payload)
	}
}

func TestRedirectConversationHeader(t *testing.T) {
	c1 := md5("c1=g1:a1:v1")
	h := newRedirect(newResolver(t))

	var redirected captured
	req := httptest.NewRequest(http.MethodGet, base+"/containers/c2/tasks/1", nil)
	req.Header.Set(header, "'kieserver':'x':'g:a:v':'1'")
	h(capture(&redirected)).ServeHTTP(httptest.NewRecorder(), req)
	if redirected.header != "" {
		t.Errorf("conversation header kept on redirect: %q", redirected.header)
	}

	var kept captured
	req = httptest.NewRequest(http.MethodGet, base+"/containers/"+c1+"/tasks/1", nil)
	req.Header.Set(header, "conv")
	h(capture(&kept)).ServeHTTP(httptest.NewRecorder(), req)
	if kept.header != "conv" {
		t.Errorf("conversation header dropped without redirect: %q", kept.header)
	}
}

type recordingResolver struct {
	signals []redirect.Signals
}

func (r *recordingResolver) Resolve(_ context.Context, s redirect.Signals) redirect.Decision {
	r.signals = append(r.signals, s)
	return redirect.Decision{RequestedID: s.RequestedID}
}

func TestRedirectSignals(t *testing.T) {
	res := &recordingResolver{}
	h := newRedirect(res)

	tests := []struct {
		name string
		path string
		want redirect.Signals
	}{
		{
			name: "work item",
			path: base + "/containers/c1/processes/instances/42/workitems/7/completed",
			want: redirect.Signals{RequestedID: "c1", ProcessInstanceID: "42", WorkItemID: "7", ConversationID: "conv"},
		},
		{
			name: "task",
			path: base + "/containers/c1/tasks/9/states/claimed",
			want: redirect.Signals{RequestedID: "c1", TaskInstanceID: "9", ConversationID: "conv"},
		},
		{
			name: "correlation key",
			path: base + "/queries/processes/instances/correlation/order%2F1",
			want: redirect.Signals{CorrelationKey: "order/1", ConversationID: "conv"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res.signals = nil
			req := httptest.NewRequest(http.MethodPut, tt.path, nil)
			req.Header.Set(header, "conv")
			h(capture(&captured{})).ServeHTTP(httptest.NewRecorder(), req)

			if len(res.signals) != 1 {
				t.Fatalf("resolver called %d times", len(res.signals))
			}
			got := res.signals[0]
			if got.RequestedID != tt.want.RequestedID ||
				got.ProcessInstanceID != tt.want.ProcessInstanceID ||
				got.WorkItemID != tt.want.WorkItemID ||
				got.TaskInstanceID != tt.want.TaskInstanceID ||
				got.CorrelationKey != tt.want.CorrelationKey ||
				got.ConversationID != tt.want.ConversationID {
				t.Errorf("signals = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRedirectSkipsOutsideBase(t *testing.T) {
	res := &recordingResolver{}
	h := newRedirect(res)

	for _, p := range []string{"/healthz", "/services/rest/serverx/containers/c1", "/services"} {
		h(capture(&captured{})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if len(res.signals) != 0 {
		t.Errorf("resolver called for paths outside base: %+v", res.signals)
	}
}

func TestStripBase(t *testing.T) {
	tests := []struct {
		path, base, want string
		ok               bool
	}{
		{"/services/rest/server/containers", base, "/containers", true},
		{"/services/rest/server", base, "/", true},
		{"/services/rest/serverx", base, "", false},
		{"/containers", "", "/containers", true},
	}
	for _, tt := range tests {
		got, ok := stripBase(tt.path, tt.base)
		if got != tt.want || ok != tt.ok {
			t.Errorf("stripBase(%q, %q) = %q, %v", tt.path, tt.base, got, ok)
		}
	}
}
