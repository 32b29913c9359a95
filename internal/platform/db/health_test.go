package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHealthReport_JSONShape(t *testing.T) {
	report := healthReport{
		Status: "healthy",
		Pool: &PoolStats{
			TotalConns:      4,
			IdleConns:       3,
			AcquiredConns:   1,
			MaxConns:        20,
			AcquireCount:    120,
			AcquireDuration: "1.5s",
			Healthy:         true,
		},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(data)

	for _, key := range []string{`"status":"healthy"`, `"total_conns":4`, `"max_conns":20`, `"healthy":true`} {
		if !strings.Contains(body, key) {
			t.Errorf("expected %s in %s", key, body)
		}
	}
	// a healthy report omits the error field
	if strings.Contains(body, `"error"`) {
		t.Errorf("unexpected error field in %s", body)
	}
}

func TestHealthReport_UnhealthyCarriesError(t *testing.T) {
	report := healthReport{
		Status: "unhealthy",
		Error:  "connection refused",
		Pool:   &PoolStats{Healthy: false},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"error":"connection refused"`) {
		t.Errorf("expected error field in %s", body)
	}
	if !strings.Contains(body, `"healthy":false`) {
		t.Errorf("expected healthy false in %s", body)
	}
}
