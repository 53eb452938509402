package occupancy

import (
	"testing"

	apperrors "maitred/pkg/errors"
	"maitred/pkg/model"
)

func TestTransitionLegalMoves(t *testing.T) {
	tests := []struct {
		name    string
		current model.TableState
		event   Event
		want    model.TableState
	}{
		{"seat free table", model.TableFree, EventSeat, model.TableOccupied},
		{"reserve free table", model.TableFree, EventReserve, model.TableReserved},
		{"seat reserved table", model.TableReserved, EventSeat, model.TableOccupied},
		{"release reserved table", model.TableReserved, EventRelease, model.TableFree},
		{"release occupied table", model.TableOccupied, EventRelease, model.TableFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.event)
			if err != nil {
				t.Fatalf("Transition(%s, %s) unexpected error: %v", tt.current, tt.event, err)
			}
			if got != tt.want {
				t.Errorf("Transition(%s, %s) = %s, want %s", tt.current, tt.event, got, tt.want)
			}
		})
	}
}

func TestTransitionIllegalMoves(t *testing.T) {
	tests := []struct {
		name    string
		current model.TableState
		event   Event
	}{
		{"seat occupied table", model.TableOccupied, EventSeat},
		{"reserve occupied table", model.TableOccupied, EventReserve},
		{"reserve reserved table", model.TableReserved, EventReserve},
		{"release free table", model.TableFree, EventRelease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transition(tt.current, tt.event)
			if err == nil {
				t.Fatalf("Transition(%s, %s) expected error, got none", tt.current, tt.event)
			}

			if !apperrors.IsAppError(err) {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidTransition {
				t.Errorf("expected code %s, got %s", apperrors.CodeInvalidTransition, appErr.Code)
			}
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	_, err := Transition(model.TableState("broken"), EventSeat)
	if err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestCanApply(t *testing.T) {
	if !CanApply(model.TableFree, EventReserve) {
		t.Error("expected reserve to be legal from free")
	}
	if CanApply(model.TableFree, EventRelease) {
		t.Error("expected release to be illegal from free")
	}
}
