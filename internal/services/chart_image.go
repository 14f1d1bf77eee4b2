package services

import (
	"bytes"
	"context"
	"fmt"
	"github.com/fogleman/gg"
	"github.com/golang/glog"
	"github.com/luckfunc/ticketBot/internal/models"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

const (
	chartWidth   = 1000
	chartHeight  = 500
	chartPadding = 70
)

// TrendRenderer draws the full price history to an image artifact.
type TrendRenderer interface {
	Render(ctx context.Context) error
}

type chartPoint struct {
	X, Y float64
}

// ImageRenderer 用 gg 画价格折线图
type ImageRenderer struct {
	history  HistoryStore
	path     string
	title    string
	fontPath string
}

func NewImageRenderer(history HistoryStore, path, title, fontPath string) *ImageRenderer {
	return &ImageRenderer{history: history, path: path, title: title, fontPath: fontPath}
}

func (r *ImageRenderer) Render(ctx context.Context) error {
	history, err := r.history.Load(ctx)
	if err != nil {
		return fmt.Errorf("chart: load history: %w", err)
	}
	if len(history) == 0 {
		glog.V(1).Info("chart: no history yet, skipping")
		return nil
	}
	image, err := renderTrendImage(r.title, history, r.fontPath)
	if err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	return writeArtifact(r.path, image)
}

// layoutTrend maps observations onto the plot rectangle: time runs left to right, price bottom to top.
func layoutTrend(history []models.Observation, left, top, width, height float64) []chartPoint {
	if len(history) == 0 {
		return nil
	}
	first, last := history[0].Timestamp, history[0].Timestamp
	low, high := history[0].Price, history[0].Price
	for _, obs := range history[1:] {
		if obs.Timestamp.Before(first) {
			first = obs.Timestamp
		}
		if obs.Timestamp.After(last) {
			last = obs.Timestamp
		}
		if obs.Price.LessThan(low) {
			low = obs.Price
		}
		if obs.Price.GreaterThan(high) {
			high = obs.Price
		}
	}

	span := last.Sub(first).Seconds()
	priceRange := high.Sub(low).InexactFloat64()
	points := make([]chartPoint, 0, len(history))
	for _, obs := range history {
		x := left + width/2
		if span > 0 {
			x = left + obs.Timestamp.Sub(first).Seconds()/span*width
		}
		y := top + height/2
		if priceRange > 0 {
			y = top + height - obs.Price.Sub(low).InexactFloat64()/priceRange*height
		}
		points = append(points, chartPoint{X: x, Y: y})
	}
	return points
}

func renderTrendImage(title string, history []models.Observation, fontPath string) ([]byte, error) {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(color.White)
	dc.Clear()

	if fontPath != "" {
		if err := dc.LoadFontFace(fontPath, 16); err != nil {
			return nil, err
		}
	}

	left, top := float64(chartPadding), float64(chartPadding)
	width, height := float64(chartWidth-chartPadding*2), float64(chartHeight-chartPadding*2)

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(title, chartWidth/2, float64(chartPadding)/2, 0.5, 0.5)

	dc.SetColor(color.RGBA{R: 200, G: 200, B: 200, A: 255})
	dc.SetLineWidth(1)
	dc.DrawLine(left, top, left, top+height)
	dc.DrawLine(left, top+height, left+width, top+height)
	dc.Stroke()

	low, high := history[0].Price, history[0].Price
	for _, obs := range history {
		if obs.Price.LessThan(low) {
			low = obs.Price
		}
		if obs.Price.GreaterThan(high) {
			high = obs.Price
		}
	}
	dc.SetColor(color.RGBA{R: 100, G: 100, B: 100, A: 255})
	dc.DrawStringAnchored("$"+high.StringFixed(2), left-8, top, 1, 0.5)
	dc.DrawStringAnchored("$"+low.StringFixed(2), left-8, top+height, 1, 0.5)
	dc.DrawStringAnchored(history[0].Timestamp.Format("01-02 15:04"), left, top+height+18, 0, 0.5)
	dc.DrawStringAnchored(history[len(history)-1].Timestamp.Format("01-02 15:04"), left+width, top+height+18, 1, 0.5)

	points := layoutTrend(history, left, top, width, height)
	dc.SetColor(color.RGBA{R: 28, G: 100, B: 200, A: 255})
	dc.SetLineWidth(2)
	for i, p := range points {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
			continue
		}
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
	for _, p := range points {
		dc.DrawCircle(p.X, p.Y, 3)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeArtifact replaces path in one rename so readers never see a half-written image.
func writeArtifact(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("chart: create temp: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("chart: chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("chart: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chart: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chart: replace %s: %w", path, err)
	}
	return nil
}
