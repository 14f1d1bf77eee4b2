package services

import (
	"bytes"
	"context"
	"errors"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/shopspring/decimal"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type memoryHistory struct {
	rows []models.Observation
	err  error
}

func (m *memoryHistory) Append(ctx context.Context, obs models.Observation) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, obs)
	return nil
}

func (m *memoryHistory) Load(ctx context.Context) ([]models.Observation, error) {
	return m.rows, m.err
}

func observations(start time.Time, prices ...string) []models.Observation {
	out := make([]models.Observation, 0, len(prices))
	for i, p := range prices {
		out = append(out, models.Observation{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     decimal.RequireFromString(p),
		})
	}
	return out
}

func TestLayoutTrend(t *testing.T) {
	start := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	history := observations(start, "80.00", "60.00", "70.00")

	points := layoutTrend(history, 0, 0, 200, 100)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	want := []chartPoint{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 50}}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestLayoutTrendFlat(t *testing.T) {
	start := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	points := layoutTrend(observations(start, "70.00"), 10, 10, 100, 50)
	if len(points) != 1 || points[0] != (chartPoint{X: 60, Y: 35}) {
		t.Errorf("single point layout = %+v", points)
	}
}

func TestImageRendererSkipsEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_trend.png")
	r := NewImageRenderer(&memoryHistory{}, path, "Lowest price", "")

	if err := r.Render(context.Background()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("chart written for empty history (stat err = %v)", err)
	}
}

func TestImageRendererOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "price_trend.png")
	start := time.Date(2025, 11, 1, 9, 0, 0, 0, time.Local)
	history := &memoryHistory{rows: observations(start, "80.00", "75.50")}
	r := NewImageRenderer(history, path, "Lowest price", "")

	if err := r.Render(context.Background()); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	history.rows = observations(start, "80.00", "75.50", "62.00")
	if err := r.Render(context.Background()); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(first, second) {
		t.Error("second render did not change the artifact")
	}
	img, err := png.Decode(bytes.NewReader(second))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != chartWidth || b.Dy() != chartHeight {
		t.Errorf("image size = %dx%d", b.Dx(), b.Dy())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in %s, found %d entries", dir, len(entries))
	}
}

func TestImageRendererHistoryError(t *testing.T) {
	r := NewImageRenderer(&memoryHistory{err: errors.New("disk gone")}, filepath.Join(t.TempDir(), "x.png"), "", "")
	if err := r.Render(context.Background()); err == nil {
		t.Error("expected error when history cannot be loaded")
	}
}

func TestRenderTrendHTML(t *testing.T) {
	start := time.Date(2025, 11, 1, 9, 0, 0, 0, time.Local)
	view := buildTrendView("Michigan vs MSU", observations(start, "80.00", "72.25", "65.50"))

	if len(view.Points) != 3 {
		t.Fatalf("view has %d points, want 3", len(view.Points))
	}
	if view.High != "$80.00" || view.Low != "$65.50" {
		t.Errorf("range = %s..%s", view.Low, view.High)
	}

	html, err := renderTrendHTML(view)
	if err != nil {
		t.Fatalf("renderTrendHTML: %v", err)
	}
	if got := strings.Count(html, "<circle"); got != 3 {
		t.Errorf("html has %d circles, want 3", got)
	}
	for _, want := range []string{"Michigan vs MSU", "$72.25", view.Polyline} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}
