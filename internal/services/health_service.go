package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"opsdash/internal/infrastructure"
	"opsdash/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// StatusProvider is satisfied by *DataService.
type StatusProvider interface {
	Status() LoadStatus
}

// ClientCounter is satisfied by the websocket hub.
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthService provides health check functionality
type HealthService struct {
	data       StatusProvider
	clients    ClientCounter
	staleAfter time.Duration
	startTime  time.Time
	logger     *slog.Logger
}

// NewHealthService creates a health service. A snapshot older than
// staleAfter makes readiness degraded; 0 disables the age check. clients
// may be nil.
func NewHealthService(data StatusProvider, clients ClientCounter, staleAfter time.Duration, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		data:       data,
		clients:    clients,
		staleAfter: staleAfter,
		startTime:  time.Now(),
		logger:     infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports whether datasets are loaded, fresh and non-empty.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"datasets": hs.checkDatasets(),
		},
	}
	if hs.clients != nil {
		status.Services["websocket"] = ServiceHealth{
			Status:  StatusReady,
			Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
		}
	}

	for _, svc := range status.Services {
		switch svc.Status {
		case StatusNotReady:
			status.Status = StatusNotReady
		case StatusDegraded:
			if status.Status == StatusReady {
				status.Status = StatusDegraded
			}
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "Readiness check not ready",
			slog.String("status", status.Status),
			slog.String("datasets", status.Services["datasets"].Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDatasets() ServiceHealth {
	st := hs.data.Status()
	if !st.Loaded {
		return ServiceHealth{Status: StatusNotReady, Message: "datasets not loaded"}
	}

	var problems []string
	for _, d := range st.Datasets {
		switch {
		case d.Error != "":
			problems = append(problems, fmt.Sprintf("%s failed", d.Name))
		case d.Records == 0:
			problems = append(problems, fmt.Sprintf("%s empty", d.Name))
		}
	}
	if hs.staleAfter > 0 && st.LoadedAt != nil {
		if age := time.Since(*st.LoadedAt); age > hs.staleAfter {
			problems = append(problems, fmt.Sprintf("snapshot is %s old", age.Truncate(time.Second)))
		}
	}

	if len(problems) > 0 {
		return ServiceHealth{Status: StatusDegraded, Message: strings.Join(problems, "; ")}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d records in %d datasets", st.TotalRecords, len(st.Datasets)),
	}
}
