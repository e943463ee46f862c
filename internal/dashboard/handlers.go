package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/panel"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/timewindow"
)

type windowRequest struct {
	Window string `json:"window"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type windowResponse struct {
	Window  string   `json:"window"`
	Presets []string `json:"presets"`
}

type panelInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type panelResponse struct {
	panelInfo
	panel.Snapshot
}

func (s *Server) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "OK")
}

func (s *Server) GetVersion(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Version)
}

func (s *Server) GetWindow(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.windowResponse())
}

// PutWindow replaces the dashboard-wide reporting interval. Every panel
// picks the replacement up through the store subscription.
func (s *Server) PutWindow(ctx echo.Context) error {
	req := windowRequest{}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	w, err := parseWindowRequest(req)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	s.store.Replace(w)
	return ctx.JSON(http.StatusOK, s.windowResponse())
}

func (s *Server) GetPanels(ctx echo.Context) error {
	infos := make([]panelInfo, 0, len(s.panelList))
	for _, p := range s.panelList {
		infos = append(infos, panelInfo{ID: p.ID(), Title: p.Title()})
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (s *Server) GetPanelByID(ctx echo.Context) error {
	p, ok := s.panelByID[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, echo.Map{"error": "unknown panel"})
	}
	return ctx.JSON(http.StatusOK, panelResponse{
		panelInfo: panelInfo{ID: p.ID(), Title: p.Title()},
		Snapshot:  p.Snapshot(),
	})
}

// PutPanelFilters replaces one panel's local filters and revalidates its
// query. Filters that leave the parameters unchanged cost nothing.
func (s *Server) PutPanelFilters(ctx echo.Context) error {
	p, ok := s.panelByID[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, echo.Map{"error": "unknown panel"})
	}
	filters := map[string]string{}
	if err := ctx.Bind(&filters); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	p.SetFilters(filters)
	return ctx.JSON(http.StatusOK, "OK")
}

// PostPanelRefresh refetches one panel ahead of its next scheduled tick.
func (s *Server) PostPanelRefresh(ctx echo.Context) error {
	p, ok := s.panelByID[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, echo.Map{"error": "unknown panel"})
	}
	p.Refresh()
	return ctx.JSON(http.StatusOK, "OK")
}

// StreamEvents is the live feed: the current snapshot of every panel
// first, then each applied transition as it happens, as server-sent
// events.
func (s *Server) StreamEvents(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	id, events := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	for _, p := range s.panelList {
		if err := writeEvent(res, Event{Panel: p.ID(), Snapshot: p.Snapshot()}); err != nil {
			return nil
		}
	}
	res.Flush()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(res, ev); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (s *Server) windowResponse() windowResponse {
	known := timewindow.Presets()
	presets := make([]string, 0, len(known))
	for _, p := range known {
		presets = append(presets, string(p))
	}
	return windowResponse{Window: s.store.Current().String(), Presets: presets}
}

func parseWindowRequest(req windowRequest) (timewindow.Window, error) {
	switch {
	case req.Window != "" && (req.Start != "" || req.End != ""):
		return timewindow.Window{}, errors.New("window and start/end are mutually exclusive")
	case req.Window != "":
		return timewindow.Parse(req.Window)
	case req.Start != "" || req.End != "":
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return timewindow.Window{}, fmt.Errorf("invalid start '%s'", req.Start)
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			return timewindow.Window{}, fmt.Errorf("invalid end '%s'", req.End)
		}
		return timewindow.Between(start, end)
	default:
		return timewindow.Window{}, errors.New("provide a window or an explicit start/end pair")
	}
}

func writeEvent(w io.Writer, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}
