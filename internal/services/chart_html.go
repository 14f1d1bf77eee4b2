package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"github.com/chromedp/chromedp"
	"github.com/golang/glog"
	"github.com/luckfunc/ticketBot/internal/models"
	"html/template"
	"strings"
	"time"
)

type trendPointView struct {
	X, Y  string
	Label string
}

type trendView struct {
	Title     string
	Width     int
	Height    int
	Polyline  string
	Points    []trendPointView
	High      string
	Low       string
	First     string
	Last      string
	Timestamp string
}

// HTMLRenderer renders the chart as an SVG page and screenshots it with headless Chrome.
type HTMLRenderer struct {
	history HistoryStore
	path    string
	title   string
	timeout time.Duration
}

func NewHTMLRenderer(history HistoryStore, path, title string, timeout time.Duration) *HTMLRenderer {
	return &HTMLRenderer{history: history, path: path, title: title, timeout: timeout}
}

func (r *HTMLRenderer) Render(ctx context.Context) error {
	history, err := r.history.Load(ctx)
	if err != nil {
		return fmt.Errorf("chart: load history: %w", err)
	}
	if len(history) == 0 {
		glog.V(1).Info("chart: no history yet, skipping")
		return nil
	}
	html, err := renderTrendHTML(buildTrendView(r.title, history))
	if err != nil {
		return fmt.Errorf("chart: template: %w", err)
	}
	image, err := renderHTMLToPNG(ctx, html, chartWidth, chartHeight, r.timeout)
	if err != nil {
		return fmt.Errorf("chart: screenshot: %w", err)
	}
	return writeArtifact(r.path, image)
}

func buildTrendView(title string, history []models.Observation) trendView {
	left, top := float64(chartPadding), float64(chartPadding)
	width, height := float64(chartWidth-chartPadding*2), float64(chartHeight-chartPadding*2)
	points := layoutTrend(history, left, top, width, height)

	view := trendView{
		Title:     title,
		Width:     chartWidth,
		Height:    chartHeight,
		First:     history[0].Timestamp.Format("01-02 15:04"),
		Last:      history[len(history)-1].Timestamp.Format("01-02 15:04"),
		Timestamp: time.Now().Format(models.TimestampLayout),
	}
	low, high := history[0].Price, history[0].Price
	coords := make([]string, 0, len(points))
	for i, p := range points {
		x, y := fmt.Sprintf("%.1f", p.X), fmt.Sprintf("%.1f", p.Y)
		coords = append(coords, x+","+y)
		view.Points = append(view.Points, trendPointView{X: x, Y: y, Label: "$" + history[i].Price.StringFixed(2)})
		if history[i].Price.LessThan(low) {
			low = history[i].Price
		}
		if history[i].Price.GreaterThan(high) {
			high = history[i].Price
		}
	}
	view.Polyline = strings.Join(coords, " ")
	view.High = "$" + high.StringFixed(2)
	view.Low = "$" + low.StringFixed(2)
	return view
}

func renderTrendHTML(view trendView) (string, error) {
	tpl, err := template.New("trend").Parse(trendHTMLTemplate)
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	if err := tpl.Execute(&builder, view); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func renderHTMLToPNG(ctx context.Context, html string, width int, height int64, timeout time.Duration) ([]byte, error) {
	ctx, cancel := newBrowserContext(ctx, "", timeout)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(width), height),
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

const trendHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <style>
    body { margin: 0; background: #ffffff; font-family: "Helvetica Neue", Arial, sans-serif; color: #1f1f1f; }
    .axis { stroke: #c8c8c8; stroke-width: 1; }
    .line { fill: none; stroke: #1c64c8; stroke-width: 2; }
    .dot { fill: #1c64c8; }
    .label { font-size: 13px; fill: #646464; }
    .title { font-size: 18px; font-weight: 600; }
  </style>
</head>
<body>
  <svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}">
    <text class="title" x="70" y="35">{{.Title}}</text>
    <line class="axis" x1="70" y1="70" x2="70" y2="430" />
    <line class="axis" x1="70" y1="430" x2="930" y2="430" />
    <text class="label" x="62" y="74" text-anchor="end">{{.High}}</text>
    <text class="label" x="62" y="434" text-anchor="end">{{.Low}}</text>
    <text class="label" x="70" y="452">{{.First}}</text>
    <text class="label" x="930" y="452" text-anchor="end">{{.Last}}</text>
    <polyline class="line" points="{{.Polyline}}" />
    {{range .Points}}<circle class="dot" cx="{{.X}}" cy="{{.Y}}" r="3"><title>{{.Label}}</title></circle>
    {{end}}
    <text class="label" x="930" y="490" text-anchor="end">Updated {{.Timestamp}}</text>
  </svg>
</body>
</html>`
