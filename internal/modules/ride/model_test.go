// README: Transition table tests for rides and ride requests.
package ride

import "testing"

func TestCanTransitionRequest(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestPending, RequestAccepted, true},
		{RequestPending, RequestDeclined, true},
		{RequestPending, RequestCancelled, true},
		{"", RequestAccepted, true}, // missing status reads as pending
		{RequestAccepted, RequestCancelled, true},
		{RequestAccepted, RequestCompleted, true},
		{RequestDeclined, RequestCompleted, true},
		// only one decision is reachable from pending
		{RequestDeclined, RequestAccepted, false},
		{RequestAccepted, RequestDeclined, false},
		{RequestCancelled, RequestAccepted, false},
		// no way back
		{RequestAccepted, RequestPending, false},
		{RequestCompleted, RequestCancelled, false},
		// self loops are not transitions
		{RequestAccepted, RequestAccepted, false},
	}
	for _, tc := range cases {
		if got := CanTransitionRequest(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionRequest(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionRide(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusCompleted, true},
		{"", StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusActive, false},
	}
	for _, tc := range cases {
		if got := CanTransitionRide(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionRide(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
