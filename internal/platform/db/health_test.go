package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHealthStatus_JSONHealthy(t *testing.T) {
	s := HealthStatus{
		Status: "healthy",
		Pool: PoolStats{
			TotalConns:    3,
			IdleConns:     2,
			AcquiredConns: 1,
			MaxConns:      20,
			AcquireCount:  42,
			AcquireWait:   "1.5ms",
		},
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)

	if !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("missing status: %s", body)
	}
	if strings.Contains(body, `"error"`) {
		t.Errorf("error field must be omitted when empty: %s", body)
	}
	for _, field := range []string{`"total_conns":3`, `"max_conns":20`, `"acquire_wait":"1.5ms"`} {
		if !strings.Contains(body, field) {
			t.Errorf("missing %s in %s", field, body)
		}
	}
}

func TestHealthStatus_JSONUnhealthy(t *testing.T) {
	s := HealthStatus{Status: "unhealthy", Error: "connection refused"}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)

	if !strings.Contains(body, `"status":"unhealthy"`) {
		t.Errorf("missing status: %s", body)
	}
	if !strings.Contains(body, `"error":"connection refused"`) {
		t.Errorf("missing error: %s", body)
	}
}
