package conversation

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name        string
		from        Step
		to          Step
		shouldAllow bool
	}{
		{"select service to date", StepSelectService, StepEnterDate, true},
		{"date to time", StepEnterDate, StepEnterTime, true},
		{"time to full name", StepEnterTime, StepEnterFullName, true},
		{"full name to allergy", StepEnterFullName, StepEnterAllergy, true},
		{"allergy to phone", StepEnterAllergy, StepEnterPhone, true},
		{"phone to confirm", StepEnterPhone, StepConfirm, true},
		// Skipping steps is not allowed
		{"select service to time", StepSelectService, StepEnterTime, false},
		{"select service to confirm", StepSelectService, StepConfirm, false},
		{"date to phone", StepEnterDate, StepEnterPhone, false},
		// No forward moves out of confirm
		{"confirm to select service", StepConfirm, StepSelectService, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := CanTransition(tt.from, tt.to)
			if allowed != tt.shouldAllow {
				t.Errorf("transition %s -> %s: expected allowed=%v, got %v",
					tt.from, tt.to, tt.shouldAllow, allowed)
			}
		})
	}
}

func TestBackTarget(t *testing.T) {
	tests := []struct {
		from   Step
		to     Step
		hasWay bool
	}{
		{StepEnterDate, StepSelectService, true},
		{StepEnterAllergy, StepEnterFullName, true},
		{StepEnterPhone, StepEnterAllergy, true},
		{StepConfirm, StepEnterPhone, true},
		// These steps have no back target and force a restart
		{StepSelectService, "", false},
		{StepEnterTime, "", false},
		{StepEnterFullName, "", false},
	}

	for _, tt := range tests {
		to, ok := BackTarget(tt.from)
		if ok != tt.hasWay {
			t.Errorf("BackTarget(%s): expected ok=%v, got %v", tt.from, tt.hasWay, ok)
			continue
		}
		if ok && to != tt.to {
			t.Errorf("BackTarget(%s): expected %s, got %s", tt.from, tt.to, to)
		}
	}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	if store.Get(123) != nil {
		t.Error("expected nil for non-existent session")
	}

	created := store.GetOrCreate(123)
	if created == nil {
		t.Fatal("expected created session")
	}
	if created.CallerID != 123 {
		t.Errorf("expected CallerID 123, got %d", created.CallerID)
	}
	if created.Step != StepSelectService {
		t.Errorf("expected initial step, got %s", created.Step)
	}

	if store.GetOrCreate(123) != created {
		t.Error("GetOrCreate should return existing session")
	}
	if store.Get(123) != created {
		t.Error("expected same session object")
	}

	created.Data.ServiceName = "Маникюр"
	fresh := store.Reset(123)
	if fresh == created {
		t.Error("Reset should replace the session")
	}
	if fresh.Data.ServiceName != "" {
		t.Error("Reset should drop collected data")
	}

	store.Delete(123)
	if store.Get(123) != nil {
		t.Error("expected nil after Delete")
	}
}
