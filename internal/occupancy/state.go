// Package occupancy defines the table lifecycle state machine. Tables
// move between free, reserved, and occupied; every change flows through
// Transition so illegal moves are rejected in one place.
package occupancy

import (
	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
)

type Event string

const (
	// EventSeat marks a party as physically seated at the table.
	EventSeat Event = "seat"
	// EventReserve holds the table for an upcoming reservation.
	EventReserve Event = "reserve"
	// EventRelease returns the table to the free pool.
	EventRelease Event = "release"
)

var transitions = map[model.TableState]map[Event]model.TableState{
	model.TableFree: {
		EventSeat:    model.TableOccupied,
		EventReserve: model.TableReserved,
	},
	model.TableReserved: {
		EventSeat:    model.TableOccupied,
		EventRelease: model.TableFree,
	},
	model.TableOccupied: {
		EventRelease: model.TableFree,
	},
}

// Transition returns the state a table enters when the event is applied,
// or an INVALID_TRANSITION error when the move is not legal.
func Transition(current model.TableState, event Event) (model.TableState, error) {
	legal, ok := transitions[current]
	if !ok {
		return "", apperrors.InvalidTransition("unknown table state: " + string(current))
	}

	next, ok := legal[event]
	if !ok {
		return "", apperrors.InvalidTransition("cannot " + string(event) + " a " + string(current) + " table")
	}

	return next, nil
}

// CanApply reports whether the event is legal from the current state.
func CanApply(current model.TableState, event Event) bool {
	_, err := Transition(current, event)
	return err == nil
}
