package services

import (
	"testing"
	"time"
)

func TestCombineStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
		exp       string
	}{
		{
			name:      "ok stays ok",
			current:   overallStatusOK,
			candidate: overallStatusOK,
			exp:       overallStatusOK,
		},
		{
			name:      "degraded overrides ok",
			current:   overallStatusOK,
			candidate: overallStatusDegraded,
			exp:       overallStatusDegraded,
		},
		{
			name:      "critical overrides degraded",
			current:   overallStatusDegraded,
			candidate: overallStatusCritical,
			exp:       overallStatusCritical,
		},
		{
			name:      "ok never downgrades critical",
			current:   overallStatusCritical,
			candidate: overallStatusOK,
			exp:       overallStatusCritical,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := combineStatus(tc.current, tc.candidate); got != tc.exp {
				t.Fatalf("expected %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestHumanizeDuration(t *testing.T) {
	if got := humanizeDuration(0); got != "0s" {
		t.Fatalf("expected 0s for zero uptime, got %q", got)
	}
	if got := humanizeDuration(-time.Minute); got != "0s" {
		t.Fatalf("expected 0s for negative uptime, got %q", got)
	}
	if got := humanizeDuration(90*time.Second + 400*time.Millisecond); got != "1m30s" {
		t.Fatalf("expected 1m30s, got %q", got)
	}
}
