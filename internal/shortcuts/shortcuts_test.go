package shortcuts

import (
	"testing"

	"github.com/ivanbrko/panoptes/internal/config"
)

func TestValidateAcceptsGoodShortcut(t *testing.T) {
	errs := Validate([]config.Shortcut{{Name: "lint", Key: "l", Command: "make"}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateRejectsReservedKey(t *testing.T) {
	errs := Validate([]config.Shortcut{{Name: "quit-alias", Key: "q", Command: "true"}})
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestValidateRejectsDigitKey(t *testing.T) {
	errs := Validate([]config.Shortcut{{Name: "num", Key: "3", Command: "true"}})
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestValidateRejectsDuplicateKeys(t *testing.T) {
	errs := Validate([]config.Shortcut{
		{Name: "a", Key: "z", Command: "true"},
		{Name: "b", Key: "z", Command: "false"},
	})
	if len(errs) != 1 {
		t.Fatalf("expected one duplicate-key error, got %v", errs)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	errs := Validate([]config.Shortcut{
		{Name: "a", Key: "q", Command: "true"},
		{Name: "b", Key: "5", Command: "true"},
	})
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}
}
