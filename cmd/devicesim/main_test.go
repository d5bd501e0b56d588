package main

import (
	"testing"
	"time"
)

func TestNewSimulator(t *testing.T) {
	sim, err := newSimulator("5, 6,7", 0)
	if err != nil {
		t.Fatalf("newSimulator failed: %v", err)
	}
	if len(sim.states) != 3 {
		t.Errorf("len(states) = %d, want 3", len(sim.states))
	}

	if _, err := newSimulator("", 0); err == nil {
		t.Error("expected error for empty pin list")
	}
	if _, err := newSimulator("5,x", 0); err == nil {
		t.Error("expected error for non-numeric pin")
	}
}

func TestAnswer(t *testing.T) {
	sim, err := newSimulator("5,6", time.Duration(0))
	if err != nil {
		t.Fatalf("newSimulator failed: %v", err)
	}

	tests := []struct {
		frame string
		want  string
	}{
		{"5,1", "ack:5,1"},
		{"6,0", "ack:6,0"},
		{"status", "5:1,6:0"},
		{"garbage", ""},
		{"5,", ""},
		{"a,b", ""},
	}

	for _, tt := range tests {
		if got := sim.answer(tt.frame); got != tt.want {
			t.Errorf("answer(%q) = %q, want %q", tt.frame, got, tt.want)
		}
	}
}

func TestStatusReportOrder(t *testing.T) {
	sim, err := newSimulator("9,2,5", 0)
	if err != nil {
		t.Fatalf("newSimulator failed: %v", err)
	}
	if got := sim.statusReport(); got != "2:0,5:0,9:0" {
		t.Errorf("statusReport() = %q, want ascending pin order", got)
	}
}

func TestAnswerLearnsNewPins(t *testing.T) {
	sim, err := newSimulator("5", 0)
	if err != nil {
		t.Fatalf("newSimulator failed: %v", err)
	}

	// A command for an unconfigured pin still takes effect, matching
	// firmware that drives whatever GPIO it is told to.
	if got := sim.answer("12,1"); got != "ack:12,1" {
		t.Errorf("answer = %q", got)
	}
	if got := sim.statusReport(); got != "5:0,12:1" {
		t.Errorf("statusReport() = %q", got)
	}
}
