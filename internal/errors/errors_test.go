package errors

import (
	"fmt"
	"testing"
)

func TestBuilderDefaults(t *testing.T) {
	err := Newf("something broke").Build()

	if err.Component != ComponentUnknown {
		t.Errorf("default component = %q, want %q", err.Component, ComponentUnknown)
	}
	if err.Category != CategoryGeneric {
		t.Errorf("default category = %q, want %q", err.Category, CategoryGeneric)
	}
	if err.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	if err.Error() != "something broke" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestBuilderMetadata(t *testing.T) {
	err := Newf("publish failed").
		Component("messenger").
		Category(CategoryMQTTPublish).
		Priority(PriorityHigh).
		Context("topic", "fieldrec/detections").
		Build()

	if err.Component != "messenger" {
		t.Errorf("component = %q", err.Component)
	}
	if err.Category != CategoryMQTTPublish {
		t.Errorf("category = %q", err.Category)
	}
	if err.Priority != PriorityHigh {
		t.Errorf("priority = %q", err.Priority)
	}

	ctx := err.GetContext()
	if ctx["topic"] != "fieldrec/detections" {
		t.Errorf("context topic = %v", ctx["topic"])
	}

	// GetContext returns a copy, not the live map.
	ctx["topic"] = "mutated"
	if err.GetContext()["topic"] != "fieldrec/detections" {
		t.Error("context must not be mutable through the returned copy")
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := NewStd("root cause")
	err := New(fmt.Errorf("wrapped: %w", cause)).
		Component("datastore").
		Category(CategoryDatabase).
		Build()

	if !Is(err, cause) {
		t.Error("Is should find the wrapped cause")
	}

	var ee *EnhancedError
	if !As(err, &ee) {
		t.Fatal("As should extract the enhanced error")
	}
	if ee.Category != CategoryDatabase {
		t.Errorf("category = %q", ee.Category)
	}
}

func TestCategoryPredicates(t *testing.T) {
	notFound := NotFoundError("recording", "abc-123")
	if !IsNotFound(notFound) {
		t.Error("IsNotFound should hold for NotFoundError")
	}
	if notFound.GetContext()["entity"] != "recording" {
		t.Error("entity context missing")
	}

	validation := ValidationError("duration must be positive")
	if !IsValidation(validation) {
		t.Error("IsValidation should hold for ValidationError")
	}

	config := Newf("bad config").Category(CategoryConfiguration).Build()
	if !IsConfiguration(config) {
		t.Error("IsConfiguration should hold")
	}

	if IsNotFound(NewStd("plain")) {
		t.Error("predicates must not match plain errors")
	}
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	inner := Newf("device missing").Category(CategoryAudioCapture).Build()
	wrapped := fmt.Errorf("capture failed: %w", inner)

	if !IsCategory(wrapped, CategoryAudioCapture) {
		t.Error("IsCategory should see through fmt.Errorf wrapping")
	}
}
