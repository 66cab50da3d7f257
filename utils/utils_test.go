package utils

import "testing"

func TestAssertInvariant_HoldsDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("AssertInvariant panicked on a true condition: %v", r)
		}
	}()

	AssertInvariant(true, "should not panic")
}

func TestAssertInvariant_ViolatedPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("AssertInvariant did not panic on a false condition")
		}
	}()

	AssertInvariant(false, "must panic")
}
