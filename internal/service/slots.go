// Package service contains the booking domain logic: the slot grid,
// price computation, discount settlement and the orchestration services
// used by the HTTP handlers.  Everything that can be expressed as a pure
// function lives here so it can be tested without a database.
package service

import "fmt"

// Business hours: half-hour slots from 09:00 up to the slot starting at
// 22:30 (ending 23:00).  The slot label is the atomic unit of booking;
// availability is an exact match on the label, no interval logic.
const (
	openHour  = 9
	closeHour = 23
)

// SlotStatus reports whether a single slot of the grid is free on a given
// date.
type SlotStatus struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotGrid returns the fixed list of bookable slot labels in order.
func SlotGrid() []string {
	slots := make([]string, 0, (closeHour-openHour)*2)
	for h := openHour; h < closeHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return slots
}

// ValidSlot reports whether t is one of the grid labels.
func ValidSlot(t string) bool {
	for _, s := range SlotGrid() {
		if s == t {
			return true
		}
	}
	return false
}

// Availability maps the grid against the booked times of a date.  A slot is
// unavailable iff some non-cancelled reservation occupies exactly that label.
func Availability(booked []string) []SlotStatus {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	grid := SlotGrid()
	out := make([]SlotStatus, len(grid))
	for i, s := range grid {
		_, used := taken[s]
		out[i] = SlotStatus{Time: s, Available: !used}
	}
	return out
}
