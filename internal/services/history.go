package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/golang/glog"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/shopspring/decimal"
	"io"
	"os"
	"time"
)

// HistoryStore is the append-only log of observations.
type HistoryStore interface {
	Append(ctx context.Context, obs models.Observation) error
	Load(ctx context.Context) ([]models.Observation, error)
}

var historyHeader = []string{"Timestamp", "Price"}

// CSVHistory 追加写入 CSV 文件，首次写入时带表头
type CSVHistory struct {
	path string
}

func NewCSVHistory(path string) *CSVHistory {
	return &CSVHistory{path: path}
}

func (h *CSVHistory) Path() string { return h.path }

func (h *CSVHistory) Append(ctx context.Context, obs models.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := os.Stat(h.path)
	fileExists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("history: stat %s: %w", h.path, err)
	}

	file, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", h.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if !fileExists {
		if err := writer.Write(historyHeader); err != nil {
			return fmt.Errorf("history: write header: %w", err)
		}
	}
	row := []string{obs.Timestamp.Format(models.TimestampLayout), obs.Price.String()}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("history: write row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("history: flush: %w", err)
	}
	return file.Close()
}

// Load returns every recorded observation in file order. A missing file is an empty history.
func (h *CSVHistory) Load(ctx context.Context) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", h.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var out []models.Observation
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: read %s: %w", h.path, err)
		}
		if line == 1 && len(record) > 0 && record[0] == historyHeader[0] {
			continue
		}
		obs, err := parseHistoryRecord(record)
		if err != nil {
			glog.Warningf("history: %s line %d skipped: %v", h.path, line, err)
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

func parseHistoryRecord(record []string) (models.Observation, error) {
	if len(record) < 2 {
		return models.Observation{}, fmt.Errorf("want 2 fields, got %d", len(record))
	}
	ts, err := time.ParseInLocation(models.TimestampLayout, record[0], time.Local)
	if err != nil {
		return models.Observation{}, err
	}
	price, err := decimal.NewFromString(record[1])
	if err != nil {
		return models.Observation{}, err
	}
	return models.Observation{Timestamp: ts, Price: price}, nil
}
