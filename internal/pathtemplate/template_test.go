package pathtemplate

import (
	"errors"
	"reflect"
	"testing"
)

func TestTemplateMatches(t *testing.T) {
	tpl := New("foo/{id}/bar/{pInstanceId}/pizza")

	tests := []struct {
		path string
		want bool
	}{
		{"/foo/MyId/bar/42/pizza", true},
		{"foo/MyId/bar/42/pizza", true},
		{"/bar/MyId/foo/42/pizza", false},
		{"/foo/MyId/bar/notanumber/pizza", false},
		{"/foo/My/Id/bar/42/pizza", false},
		{"/foo/MyId/bar/42/pizza/extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := tpl.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	tpl := New("/foo/{id}/bar/{pInstanceId}/pizza")
	vars := map[string]string{"id": "MyId", "pInstanceId": "42"}

	path, err := tpl.BuildPath(vars)
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if path != "/foo/MyId/bar/42/pizza" {
		t.Fatalf("BuildPath() = %s", path)
	}
	if !tpl.Matches(path) {
		t.Fatalf("Matches(%s) = false", path)
	}
	if got := tpl.Extract(path); !reflect.DeepEqual(got, vars) {
		t.Errorf("Extract() = %v, want %v", got, vars)
	}
}

func TestTemplateWithoutPlaceholders(t *testing.T) {
	tpl := New("/containers")
	if tpl.Matches("/containers") {
		t.Error("templates without placeholders never match dynamically")
	}
	if vars := tpl.Extract("/containers"); vars != nil {
		t.Errorf("Extract() = %v, want nil", vars)
	}
	if p, err := tpl.BuildPath(nil); err != nil || p != "/containers" {
		t.Errorf("BuildPath(nil) = %s, %v", p, err)
	}
}

func TestTemplateEscaping(t *testing.T) {
	tpl := New("/containers/{id}/processes/{pId}/instances/correlation/{correlationKey}")

	path, err := tpl.BuildPath(map[string]string{"id": "c1", "pId": "my.proc", "correlationKey": "a b/c"})
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if path != "/containers/c1/processes/my.proc/instances/correlation/a%20b%2Fc" {
		t.Fatalf("BuildPath() = %s", path)
	}
	if got := tpl.Extract(path)["correlationKey"]; got != "a b/c" {
		t.Errorf("Extract() correlationKey = %q", got)
	}

	literal := New("/v1.0/{id}")
	if literal.Matches("/v1x0/c1") {
		t.Error("literal dots must not act as wildcards")
	}
}

func TestBuildPathMissingVariable(t *testing.T) {
	_, err := New("/containers/{id}/tasks/{tInstanceId}").BuildPath(map[string]string{"id": "c1"})
	if !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("BuildPath() error = %v, want ErrMissingVariable", err)
	}
}

func TestBuildRedirectPath(t *testing.T) {
	tpl := New("/containers/{id}/processes/instances/{pInstanceId}")

	got, err := tpl.BuildRedirectPath("/containers/c2/processes/instances/7", "/services/rest/server", "0123abcd")
	if err != nil {
		t.Fatalf("BuildRedirectPath() error = %v", err)
	}
	if got != "/services/rest/server/containers/0123abcd/processes/instances/7" {
		t.Errorf("BuildRedirectPath() = %s", got)
	}

	if _, err := tpl.BuildRedirectPath("/jobs/1", "/base", "x"); err == nil {
		t.Error("BuildRedirectPath() should fail on a non-matching path")
	}
}

func TestTemplateVariables(t *testing.T) {
	tpl := New("/containers/{id}/processes/instances/{pInstanceId}/workitems/{workItemId}")
	want := []string{"id", "pInstanceId", "workItemId"}
	if got := tpl.Variables(); !reflect.DeepEqual(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
	if !tpl.HasVariable("workItemId") || tpl.HasVariable("jobId") {
		t.Error("HasVariable() mismatch")
	}
}
