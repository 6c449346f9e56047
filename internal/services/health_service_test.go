package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dp "opsdash/internal/dataprocessing"
	"opsdash/pkg/contracts"
)

type fixedStatus LoadStatus

func (f fixedStatus) Status() LoadStatus { return LoadStatus(f) }

type fixedClients int

func (f fixedClients) ClientCount() int { return int(f) }

func loadedStatus(age time.Duration, datasets ...dp.DatasetStatus) fixedStatus {
	at := time.Now().Add(-age)
	total := 0
	for _, d := range datasets {
		total += d.Records
	}
	return fixedStatus{Loaded: true, LoadID: "load-1", LoadedAt: &at, Datasets: datasets, TotalRecords: total}
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService(fixedStatus{}, nil, 0, nil)

	got := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, contracts.Version, got.Version)
	assert.False(t, got.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	ok := dp.DatasetStatus{Name: dp.WaterQuality, Records: 10}

	tests := []struct {
		name       string
		status     fixedStatus
		staleAfter time.Duration
		want       string
		wantMsg    string
	}{
		{name: "not loaded", status: fixedStatus{}, want: StatusNotReady, wantMsg: "not loaded"},
		{name: "loaded", status: loadedStatus(time.Minute, ok), want: StatusReady, wantMsg: "10 records"},
		{name: "empty dataset", status: loadedStatus(time.Minute, ok, dp.DatasetStatus{Name: dp.Energy}),
			want: StatusDegraded, wantMsg: "energy empty"},
		{name: "failed dataset", status: loadedStatus(time.Minute, ok, dp.DatasetStatus{Name: dp.Maintenance, Error: "timeout"}),
			want: StatusDegraded, wantMsg: "maintenance failed"},
		{name: "stale snapshot", status: loadedStatus(2*time.Hour, ok), staleAfter: time.Hour,
			want: StatusDegraded, wantMsg: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(tt.status, fixedClients(3), tt.staleAfter, nil)
			got := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.want, got.Status)
			assert.Contains(t, got.Services["datasets"].Message, tt.wantMsg)
			assert.Equal(t, "3 clients connected", got.Services["websocket"].Message)
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService(fixedStatus{}, nil, 0, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	assert.Equal(t, contracts.Version, hs.Version().Version)
}
