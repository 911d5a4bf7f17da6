package cui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jroimartin/gocui"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/utils/metrics"
)

const topCount = 10

type Trends struct {
	Rankings    []models.RankedEntry `json:"rankings"`
	LastUpdated string               `json:"last_updated"`
}

// Source is where the viewer reads the current list and cycle metrics from.
type Source interface {
	Trends(ctx context.Context) (Trends, error)
	Metrics(ctx context.Context) (metrics.Summary, error)
}

// HTTPSource reads a running rank service's JSON API.
type HTTPSource struct {
	client   *http.Client
	endpoint string
}

func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		client:   &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

func (s *HTTPSource) Trends(ctx context.Context) (Trends, error) {
	var t Trends
	err := s.getJSON(ctx, "/api/trends", &t)
	return t, err
}

func (s *HTTPSource) Metrics(ctx context.Context) (metrics.Summary, error) {
	var m metrics.Summary
	err := s.getJSON(ctx, "/api/metrics", &m)
	return m, err
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, v any) error {
	const op = "cui.HTTPSource.getJSON"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s: unexpected status: %d", op, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FormatChange renders a rank-change label as a short marker.
func FormatChange(change string) string {
	switch {
	case change == models.ChangeNew:
		return "\033[33mNEW\033[0m"
	case change == models.ChangeSame:
		return "-"
	case strings.HasPrefix(change, "up_"):
		return "\033[31m▲" + strings.TrimPrefix(change, "up_") + "\033[0m"
	case strings.HasPrefix(change, "down_"):
		return "\033[34m▼" + strings.TrimPrefix(change, "down_") + "\033[0m"
	default:
		return change
	}
}

func FormatEntry(rank int, e models.RankedEntry) string {
	return fmt.Sprintf("%2d. %s %s", rank, e.Keyword, FormatChange(e.RankChange))
}

// Render writes the top of the list, a divider and the remainder.
func Render(w io.Writer, t Trends) {
	fmt.Fprintf(w, "\033[32m%s\033[0m\n\n", t.LastUpdated)

	if len(t.Rankings) == 0 {
		fmt.Fprintln(w, "no keywords yet")
		return
	}

	for i, e := range t.Rankings {
		if i == topCount {
			fmt.Fprintln(w, "\n----------")
		}
		fmt.Fprintln(w, FormatEntry(i+1, e))
	}
}

func RenderMetrics(w io.Writer, m metrics.Summary) {
	fmt.Fprintf(w, "Cycles: %d\n", m.TotalCycles)
	fmt.Fprintf(w, "Successful: %d\n", m.SuccessfulCycles)
	fmt.Fprintf(w, "Failed: %d\n", m.FailedCycles)
	fmt.Fprintf(w, "Empty: %d\n", m.EmptyCycles)
	fmt.Fprintf(w, "Last ranked: %d\n", m.LastRanked)
	fmt.Fprintf(w, "Avg time: %s\n", m.AvgExecutionTime)
}

type CUI struct {
	ctx    context.Context
	cui    *gocui.Gui
	source Source
	log    *slog.Logger
}

func New(ctx context.Context, log *slog.Logger, source Source) (*CUI, error) {
	if log == nil {
		log = logger.Discard()
	}
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, fmt.Errorf("create gui: %w", err)
	}
	return &CUI{
		ctx:    ctx,
		cui:    g,
		source: source,
		log:    log,
	}, nil
}

func (c *CUI) Close() {
	c.cui.Close()
}

// Start runs the event loop until Ctrl-C. r reloads, arrows scroll the list.
func (c *CUI) Start() error {
	c.cui.SetManagerFunc(c.layout)
	defer c.cui.Close()

	bindings := []struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, quit},
		{"", 'r', c.reload},
		{"trends", gocui.KeyArrowDown, scrollDown},
		{"trends", gocui.KeyArrowUp, scrollUp},
	}
	for _, b := range bindings {
		if err := c.cui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return fmt.Errorf("set keybinding: %w", err)
		}
	}

	if err := c.cui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return fmt.Errorf("run gui: %w", err)
	}
	return nil
}

func (c *CUI) reload(g *gocui.Gui, _ *gocui.View) error {
	trendsView, err := g.View("trends")
	if err != nil {
		return err
	}
	metricsView, err := g.View("metrics")
	if err != nil {
		return err
	}

	trendsView.Clear()
	trendsView.SetOrigin(0, 0)
	metricsView.Clear()

	trends, err := c.source.Trends(c.ctx)
	if err != nil {
		c.log.Error("failed to load trends", sl.Err(err))
		fmt.Fprintf(trendsView, "\033[31m%v\033[0m\n", err)
	} else {
		Render(trendsView, trends)
	}

	summary, err := c.source.Metrics(c.ctx)
	if err != nil {
		c.log.Warn("failed to load metrics", sl.Err(err))
		fmt.Fprintln(metricsView, "unavailable")
	} else {
		RenderMetrics(metricsView, summary)
	}

	return nil
}

func scrollDown(g *gocui.Gui, v *gocui.View) error {
	_, oy := v.Origin()
	_, sy := v.Size()

	lines := len(v.BufferLines())

	if oy+sy < lines {
		_ = v.SetOrigin(0, oy+1)
	}
	return nil
}

func scrollUp(g *gocui.Gui, v *gocui.View) error {
	_, oy := v.Origin()
	if oy > 0 {
		_ = v.SetOrigin(0, oy-1)
	}
	return nil
}

func (c *CUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if maxX < 10 || maxY < 6 {
		return fmt.Errorf("terminal window is too small")
	}

	// Left sidebar for cycle metrics
	if v, err := g.SetView("metrics", 0, 0, maxX/4, maxY-2); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = "Cycles"
		v.Wrap = true
	}

	if v, err := g.SetView("trends", maxX/4+1, 0, maxX-2, maxY-2); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = "Trending (r: reload)"
		v.Wrap = true
		_, _ = g.SetCurrentView("trends")

		// First load once both views exist.
		g.Update(func(g *gocui.Gui) error { return c.reload(g, nil) })
	}

	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
