package mw

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
)

// ContainerIDParam is the query and form parameter naming the target container.
const ContainerIDParam = "containerId"

const maxFormBytes = 10 << 20

// Resolver picks the target deployment for a set of signals.
type Resolver interface {
	Resolve(ctx context.Context, s redirect.Signals) redirect.Decision
}

// RedirectOptions configure the Redirect middleware.
type RedirectOptions struct {
	Base               string // REST base stripped before matching, ex: /services/rest/server
	ConversationHeader string
	Templates          *pathtemplate.Registry
	Resolver           Resolver
	Metrics            *metrics.Metrics
}

// Redirect resolves the deployment every KIE REST request targets and rewrites
// the request onto it before calling next. Requests outside Base pass through.
func Redirect(o RedirectOptions, log logger.Logger) func(http.Handler) http.Handler {
	base := strings.TrimSuffix(o.Base, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rel, ok := stripBase(r.URL.EscapedPath(), base)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			tmpl, vars, matched := o.Templates.Match(rel)
			signals := redirect.Signals{ConversationID: r.Header.Get(o.ConversationHeader)}
			if matched {
				signals.RequestedID = vars[pathtemplate.VarContainerID]
				signals.CorrelationKey = vars[pathtemplate.VarCorrelationKey]
				signals.ProcessInstanceID = vars[pathtemplate.VarProcessInstance]
				signals.TaskInstanceID = vars[pathtemplate.VarTaskInstance]
				signals.WorkItemID = vars[pathtemplate.VarWorkItem]
				signals.JobID = vars[pathtemplate.VarJobID]
			}

			form, rawForm, err := readForm(r)
			if err != nil {
				log.Warn("unable to read form body", logger.Error(err))
				o.Metrics.ObserveTransportError(metrics.TransportHTTP)
				http.Error(w, "unable to read request body", http.StatusBadRequest)
				return
			}
			if signals.RequestedID == "" {
				signals.RequestedID = r.URL.Query().Get(ContainerIDParam)
			}
			if signals.RequestedID == "" && form != nil {
				signals.RequestedID = form.Get(ContainerIDParam)
			}

			decision := o.Resolver.Resolve(r.Context(), signals)
			o.Metrics.ObserveDecision(metrics.TransportHTTP, decision.Strategy.String())
			if !decision.Redirect() {
				next.ServeHTTP(w, r)
				return
			}

			out := r.Clone(r.Context())
			if matched && tmpl.HasVariable(pathtemplate.VarContainerID) && vars[pathtemplate.VarContainerID] == decision.RequestedID {
				p, err := tmpl.BuildRedirectPath(rel, base, decision.DeploymentID)
				if err != nil {
					log.Warn("unable to build redirect path",
						logger.String("path", r.URL.Path),
						logger.String("template", tmpl.String()),
						logger.Error(err))
				} else {
					setEscapedPath(out.URL, p)
				}
			}
			if q, ok := replaceParam(out.URL.RawQuery, ContainerIDParam, decision.DeploymentID); ok {
				out.URL.RawQuery = q
			}
			if form != nil {
				if body, ok := replaceParam(rawForm, ContainerIDParam, decision.DeploymentID); ok {
					setBody(out, []byte(body))
				}
			}
			if o.ConversationHeader != "" {
				out.Header.Del(o.ConversationHeader)
			}

			noteRedirect(r.Context(), decision.DeploymentID, decision.Strategy.String())
			log.Debug("request redirected",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.String("from", r.URL.RequestURI()),
				logger.String("to", out.URL.RequestURI()),
				logger.String("deployment_id", decision.DeploymentID),
				logger.String("strategy", decision.Strategy.String()))

			next.ServeHTTP(w, out)
		})
	}
}

// stripBase returns the path below base, always starting with "/".
func stripBase(path, base string) (string, bool) {
	if base == "" {
		return path, true
	}
	rest, ok := strings.CutPrefix(path, base)
	if !ok || (rest != "" && rest[0] != '/') {
		return "", false
	}
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

func setEscapedPath(u *url.URL, escaped string) {
	p, err := url.PathUnescape(escaped)
	if err != nil {
		return
	}
	u.Path = p
	u.RawPath = ""
	if u.EscapedPath() != escaped {
		u.RawPath = escaped
	}
}

// replaceParam sets every value of name in an url-encoded string. Other pairs,
// their order and their encoding are left as they are.
func replaceParam(raw, name, value string) (string, bool) {
	if raw == "" {
		return raw, false
	}
	pairs := strings.Split(raw, "&")
	replaced := false
	for i, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err != nil || k != name {
			continue
		}
		pairs[i] = key + "=" + url.QueryEscape(value)
		replaced = true
	}
	if !replaced {
		return raw, false
	}
	return strings.Join(pairs, "&"), true
}

// readForm parses an url-encoded body and puts the bytes back on r. The raw
// body is returned along with the values.
// It returns nil for any other content type or an oversized body.
func readForm(r *http.Request) (url.Values, string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, "", nil
	}
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || ct != "application/x-www-form-urlencoded" {
		return nil, "", nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(buf) > maxFormBytes {
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
		return nil, "", nil
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))

	values, err := url.ParseQuery(string(buf))
	if err != nil {
		return nil, "", nil
	}
	return values, string(buf), nil
}

func setBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}
