package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
)

var stateContentTypes = map[string]string{
	"xml":  "application/xml",
	"yaml": "application/yaml",
	"json": "application/json",
	"env":  "text/plain; charset=utf-8",
}

// State exports the deployment registry as a kie-server-state document.
// ?format= selects xml (default), yaml, json or env.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := strings.ToLower(r.URL.Query().Get("format"))
		if format == "" {
			format = "xml"
		}
		contentType, ok := stateContentTypes[format]
		if !ok {
			http.Error(w, "unknown format "+format+" (want xml, yaml, json or env)", http.StatusBadRequest)
			return
		}

		var (
			body []byte
			err  error
		)
		state := d.Registry.State()
		switch format {
		case "xml":
			body, err = state.XML()
		case "yaml":
			body, err = state.YAML()
		case "json":
			body, err = state.JSON()
		case "env":
			body = []byte(d.Registry.EnvString() + "\n")
		}
		if err != nil {
			d.Logger.Errorf("failed to render state as %s: %v", format, err)
			http.Error(w, "failed to render state", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}

type routeEntry struct {
	Template  string   `json:"template"`
	Variables []string `json:"variables,omitempty"`
}

type serviceEntry struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Roles   string `json:"roles"`
}

type catalogResponse struct {
	Base     string         `json:"base"`
	Routes   []routeEntry   `json:"routes"`
	Services []serviceEntry `json:"services"`
}

// Routes lists the path templates and service methods the redirect layer tracks.
func Routes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := catalogResponse{Base: d.RestBase}
		if d.Templates != nil {
			for _, t := range d.Templates.Templates() {
				resp.Routes = append(resp.Routes, routeEntry{Template: t.String(), Variables: t.Variables()})
			}
		}
		if d.Methods != nil {
			for _, m := range d.Methods.Methods() {
				resp.Services = append(resp.Services, serviceEntry{
					Service: m.Service(),
					Method:  m.Name(),
					Roles:   m.String(),
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
