package model

import "testing"

func TestIsValidTransitionStatus(t *testing.T) {
	tests := []struct {
		status RequestStatus
		want   bool
	}{
		{RequestStatusInProgress, true},
		{RequestStatusDone, true},
		{RequestStatusCanceled, true},
		{RequestStatusPending, false},
		{RequestStatus(""), false},
		{RequestStatus("finished"), false},
		{RequestStatus("INPROGRESS"), false},
	}

	for _, tt := range tests {
		if got := IsValidTransitionStatus(tt.status); got != tt.want {
			t.Errorf("IsValidTransitionStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
