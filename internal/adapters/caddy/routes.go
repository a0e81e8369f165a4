package caddy

import (
	"encoding/json"
	"fmt"
	"strings"

	corelab "github.com/example/labctl/internal/core/lab"
)

const (
	// ServerName is the proxy server that carries all lab routes.
	ServerName = "lab-proxy"

	// RoutesPath is the control-plane path of the server's route array.
	RoutesPath = "/config/apps/http/servers/" + ServerName + "/routes"

	routeIDPrefix = "lab-"
)

// RouteIDPath returns the control-plane path addressing a lab's route by id.
func RouteIDPath(name string) string {
	return "/id/" + routeIDPrefix + name
}

// Route is the route document installed per lab: requests for <name>.local
// and any of its subdomains are forwarded to the lab's HTTP port at the
// host-reachable alias.
type Route struct {
	ID     string   `json:"@id"`
	Match  []Match  `json:"match"`
	Handle []Handle `json:"handle"`
}

// Match is a host matcher set.
type Match struct {
	Host []string `json:"host"`
}

// Handle is a route handler entry.
type Handle struct {
	Handler   string     `json:"handler"`
	Upstreams []Upstream `json:"upstreams"`
	Headers   *Headers   `json:"headers,omitempty"`
}

// Upstream is a reverse-proxy backend address.
type Upstream struct {
	Dial string `json:"dial"`
}

// Headers carries request-header rewrites.
type Headers struct {
	Request HeaderOps `json:"request"`
}

// HeaderOps sets request headers.
type HeaderOps struct {
	Set map[string][]string `json:"set"`
}

// LabRoute builds the route document for a lab.
func LabRoute(name string, port int) Route {
	return Route{
		ID: routeIDPrefix + name,
		Match: []Match{{
			Host: []string{fmt.Sprintf("*.%s.local", name), name + ".local"},
		}},
		Handle: []Handle{{
			Handler:   "reverse_proxy",
			Upstreams: []Upstream{{Dial: fmt.Sprintf("%s:%d", corelab.HostGatewayAlias, port)}},
			Headers: &Headers{
				Request: HeaderOps{
					Set: map[string][]string{
						"X-Lab-Name": {name},
						"X-Lab-Port": {fmt.Sprintf("%d", port)},
					},
				},
			},
		}},
	}
}

// LabName extracts the lab name from a route id. Routes not installed by
// labctl report ok=false and are ignored by the synchronizer.
func (r Route) LabName() (name string, ok bool) {
	if !strings.HasPrefix(r.ID, routeIDPrefix) {
		return "", false
	}
	return strings.TrimPrefix(r.ID, routeIDPrefix), true
}

// UpstreamPort returns the port of the route's first upstream.
func (r Route) UpstreamPort() string {
	if len(r.Handle) == 0 || len(r.Handle[0].Upstreams) == 0 {
		return ""
	}
	dial := r.Handle[0].Upstreams[0].Dial
	if i := strings.LastIndex(dial, ":"); i >= 0 {
		return dial[i+1:]
	}
	return ""
}

// Hosts returns the route's matched host patterns.
func (r Route) Hosts() []string {
	if len(r.Match) == 0 {
		return nil
	}
	return r.Match[0].Host
}

// BaseConfig is the initial proxy configuration: admin endpoint exposed on
// the control-plane port, one server listening on :80 with no routes.
func BaseConfig() []byte {
	cfg := map[string]any{
		"admin": map[string]any{"listen": "0.0.0.0:2019"},
		"apps": map[string]any{
			"http": map[string]any{
				"servers": map[string]any{
					ServerName: map[string]any{
						"listen": []string{":80"},
						"routes": []any{},
					},
				},
			},
		},
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return append(data, '\n')
}
