package services

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-redis/redismock/v9"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/shopspring/decimal"
	"testing"
	"time"
)

func testEvent() models.PriceEvent {
	return models.PriceEvent{
		RunID:     "0b7e4f7c-5d7a-4c55-9d3b-2f1d0c9e8a11",
		Timestamp: time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC),
		Price:     decimal.RequireFromString("65.50"),
		Alert:     true,
	}
}

func TestRedisPublisherPublish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewRedisPublisher(db, "tickets")

	event := testEvent()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectSet("tickets:latest", string(payload), 0).SetVal("OK")
	mock.ExpectPublish("tickets:prices", string(payload)).SetVal(1)

	if err := p.Publish(context.Background(), event); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisPublisherSetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewRedisPublisher(db, "tickets")

	payload, _ := json.Marshal(testEvent())
	mock.ExpectSet("tickets:latest", string(payload), 0).SetErr(errors.New("READONLY"))

	if err := p.Publish(context.Background(), testEvent()); err == nil {
		t.Error("expected error when SET fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
