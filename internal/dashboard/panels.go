package dashboard

import (
	"context"
	"strconv"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/analytics"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/panel"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/query"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/threatintel"
)

// buildPanels wires one coordinator-backed binding per dashboard panel.
// Each binding registers with the shared scheduler and issues its first
// fetch right away. Parameter functions read the window store at call
// time, so a window replacement is picked up by the next Update without
// any plumbing per panel.
func (s *Server) buildPanels(client *analytics.Client, feed *threatintel.Feed) {
	qcfg := query.Config{
		Timeout:          s.cfg.API.Timeout,
		FailureThreshold: s.cfg.Refresh.FailureThreshold,
		Observer:         s.metrics,
	}

	window := func(map[string]string) query.Params {
		return analytics.WindowParams(s.store.Current())
	}
	topN := func(map[string]string) query.Params {
		return append(analytics.WindowParams(s.store.Current()),
			query.P("limit", strconv.Itoa(s.cfg.Panels.TopLimit)))
	}

	addPanel(s, panel.Spec{ID: "summary", Title: "Traffic summary", Params: window},
		analytics.EndpointSummary, client.Summary, qcfg)
	addPanel(s, panel.Spec{
		ID:    "timeline",
		Title: "Event timeline",
		Params: func(map[string]string) query.Params {
			return append(analytics.WindowParams(s.store.Current()),
				query.P("interval", s.cfg.Panels.TimelineInterval))
		},
	}, analytics.EndpointTimeline, client.Timeline, qcfg)
	addPanel(s, panel.Spec{ID: "blocked", Title: "Blocked traffic", Params: window},
		analytics.EndpointBlocked, client.Blocked, qcfg)
	addPanel(s, panel.Spec{ID: "top-sources", Title: "Top source IPs", Params: topN},
		analytics.EndpointTopSources, client.TopSources, qcfg)
	addPanel(s, panel.Spec{ID: "top-ports", Title: "Top destination ports", Params: topN},
		analytics.EndpointTopPorts, client.TopPorts, qcfg)
	addPanel(s, panel.Spec{ID: "protocols", Title: "Protocol breakdown", Params: window},
		analytics.EndpointProtocols, client.Protocols, qcfg)
	addPanel(s, panel.Spec{ID: "geo", Title: "Traffic by country", Params: window},
		analytics.EndpointGeo, client.Geo, qcfg)
	addPanel(s, panel.Spec{ID: "port-scans", Title: "Port scan episodes", Params: window},
		analytics.EndpointPortScans, client.PortScans, qcfg)
	addPanel(s, panel.Spec{
		ID:    "recent-events",
		Title: "Recent events",
		Params: func(filters map[string]string) query.Params {
			p := append(analytics.WindowParams(s.store.Current()),
				query.P("limit", strconv.Itoa(s.cfg.Panels.RecentLimit)))
			if action := filters["action"]; action != "" {
				p = append(p, query.P("action", action))
			}
			return p
		},
	}, analytics.EndpointRecentEvents, client.RecentEvents, qcfg)

	if feed != nil {
		// the blocklist lives in git, not behind the analytics API, so its
		// key ignores the window entirely
		addPanel(s, panel.Spec{
			ID:    "threat-blocklist",
			Title: "Threat intel blocklist",
			Params: func(map[string]string) query.Params {
				return query.Params{
					query.P("ref", s.cfg.Threat.Ref),
					query.P("path", s.cfg.Threat.Path),
				}
			},
		}, "threat/blocklist", func(ctx context.Context, _ query.Params) (*threatintel.Blocklist, error) {
			return feed.Fetch(ctx)
		}, qcfg)
	}
}

func addPanel[T any](s *Server, spec panel.Spec, endpoint string, fetch query.FetchFunc[T], qcfg query.Config) {
	coord := query.New(s.logger, spec.ID, endpoint, fetch, qcfg)
	b := panel.NewBinding(s.logger, spec, coord, s.sched, s.panelChanged)
	s.panelList = append(s.panelList, b)
	s.panelByID[spec.ID] = b
}
