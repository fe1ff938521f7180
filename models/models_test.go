package models

import (
	"testing"
	"time"
)

func TestScanTargetDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name   string
		target ScanTarget
		want   bool
	}{
		{
			name:   "never scanned",
			target: ScanTarget{ScanInterval: time.Hour},
			want:   true,
		},
		{
			name:   "interval elapsed",
			target: ScanTarget{ScanInterval: time.Hour, LastScannedAt: past(2 * time.Hour)},
			want:   true,
		},
		{
			name:   "interval exactly elapsed",
			target: ScanTarget{ScanInterval: time.Hour, LastScannedAt: past(time.Hour)},
			want:   true,
		},
		{
			name:   "scanned recently",
			target: ScanTarget{ScanInterval: time.Hour, LastScannedAt: past(10 * time.Minute)},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Due(now); got != tt.want {
				t.Fatalf("Due() = %t, want %t", got, tt.want)
			}
		})
	}
}
