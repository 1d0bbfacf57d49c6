package pathtemplate

import "testing"

func TestRegistryLongerTemplateFirst(t *testing.T) {
	r := NewRegistry([]Route{
		{Method: "GET", Path: "/containers/{id}"},
		{Method: "GET", Path: "/containers/{id}/instances/{pInstanceId}"},
		{Method: "DELETE", Path: "/containers/{id}"},
	})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after dedupe", r.Len())
	}

	tpl, vars, ok := r.Match("/containers/c1/instances/5")
	if !ok {
		t.Fatal("Match() found nothing")
	}
	if tpl.String() != "/containers/{id}/instances/{pInstanceId}" {
		t.Errorf("Match() template = %s", tpl)
	}
	if vars["id"] != "c1" || vars["pInstanceId"] != "5" {
		t.Errorf("Match() vars = %v", vars)
	}

	tpl, _, ok = r.Match("/containers/c1")
	if !ok || tpl.String() != "/containers/{id}" {
		t.Errorf("Match(/containers/c1) = %v, %v", tpl, ok)
	}

	if _, _, ok := r.Match("/unknown"); ok {
		t.Error("Match(/unknown) should find nothing")
	}
}

func TestRegistryOrdering(t *testing.T) {
	r := NewRegistry([]Route{
		{Path: "/b/{id}"},
		{Path: "/a/{id}"},
		{Path: "/a/{id}/long"},
	})
	want := []string{"/a/{id}/long", "/a/{id}", "/b/{id}"}
	for i, tpl := range r.Templates() {
		if tpl.String() != want[i] {
			t.Errorf("template %d = %s, want %s", i, tpl, want[i])
		}
	}
}

func TestDefaultRoutes(t *testing.T) {
	r := NewRegistry(DefaultRoutes())
	if r.Len() == 0 {
		t.Fatal("default catalog is empty")
	}

	tests := []struct {
		path     string
		template string
		vars     map[string]string
	}{
		{
			path:     "/containers/c2/processes/instances/7/workitems/9/completed",
			template: "/containers/{id}/processes/instances/{pInstanceId}/workitems/{workItemId}/completed",
			vars:     map[string]string{"id": "c2", "pInstanceId": "7", "workItemId": "9"},
		},
		{
			path:     "/containers/c2/tasks/11/states/claimed",
			template: "/containers/{id}/tasks/{tInstanceId}/states/claimed",
			vars:     map[string]string{"id": "c2", "tInstanceId": "11"},
		},
		{
			path:     "/queries/processes/instances/correlation/order-1",
			template: "/queries/processes/instances/correlation/{correlationKey}",
			vars:     map[string]string{"correlationKey": "order-1"},
		},
		{
			path:     "/queries/tasks/instances/workitem/9",
			template: "/queries/tasks/instances/workitem/{workItemId}",
			vars:     map[string]string{"workItemId": "9"},
		},
		{
			path:     "/jobs/3",
			template: "/jobs/{jobId}",
			vars:     map[string]string{"jobId": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tpl, vars, ok := r.Match(tt.path)
			if !ok {
				t.Fatalf("Match(%s) found nothing", tt.path)
			}
			if tpl.String() != tt.template {
				t.Errorf("template = %s, want %s", tpl, tt.template)
			}
			for k, v := range tt.vars {
				if vars[k] != v {
					t.Errorf("var %s = %q, want %q", k, vars[k], v)
				}
			}
		})
	}
}
