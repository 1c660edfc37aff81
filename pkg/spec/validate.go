package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "timeline[3].pos")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any entry in errs has error severity
// (warnings alone do not fail validation).
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateFile performs the full 3-phase validation pipeline on a test spec file.
// Phase 1: Structural (strict JSON decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*TestSpec, []*ValidationError) {
	var allErrors []*ValidationError

	// Phase 1: Structural — strict JSON decode
	ts, err := LoadFile(path)
	if err != nil {
		allErrors = append(allErrors, &ValidationError{
			Phase:    "structural",
			Path:     "",
			Message:  err.Error(),
			Severity: "error",
		})
		return nil, allErrors
	}

	// Phase 2: Semantic — JSON Schema validation
	allErrors = append(allErrors, validateSemantic(ts)...)

	// Phase 3: Domain — custom Go rules
	allErrors = append(allErrors, ValidateDomain(ts)...)

	if len(allErrors) > 0 {
		return ts, allErrors
	}
	return ts, nil
}

// Validate runs the semantic and domain phases on an already-decoded spec.
func Validate(ts *TestSpec) []*ValidationError {
	errs := validateSemantic(ts)
	errs = append(errs, ValidateDomain(ts)...)
	return errs
}

// validateSemantic validates the spec against the JSON Schema.
func validateSemantic(ts *TestSpec) []*ValidationError {
	data, err := json.Marshal(ts)
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("marshal for schema validation: %v", err),
			Severity: "error",
		}}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("generate schema: %v", err),
			Severity: "error",
		}}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("unmarshal schema: %v", err),
			Severity: "error",
		}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("testspec-v1.json", schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("add schema resource: %v", err),
			Severity: "error",
		}}
	}

	sch, err := c.Compile("testspec-v1.json")
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("compile schema: %v", err),
			Severity: "error",
		}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Path:     "",
			Message:  fmt.Sprintf("unmarshal document: %v", err),
			Severity: "error",
		}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				instancePath := strings.Join(cause.InstanceLocation, "/")
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     instancePath,
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Path:     "",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(ts *TestSpec) []*ValidationError {
	var errs []*ValidationError

	if ts.Name == "" {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "name",
			Message:  "test spec requires a non-empty 'name'",
			Severity: "error",
		})
	}

	if len(ts.Timeline) == 0 {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "timeline",
			Message:  "test spec requires at least one timeline entry",
			Severity: "error",
		})
	}

	// Cleanup region: required, min/max ordered, capped dimensions.
	region, ok := ts.CleanupRegion()
	haveRegion := false
	if !ok {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "setup.cleanup",
			Message:  "test spec requires a setup.cleanup region",
			Severity: "error",
		})
	} else {
		haveRegion = true
		min, max := region[0], region[1]
		axes := [3]string{"x", "y", "z"}
		for i := 0; i < 3; i++ {
			if min[i] > max[i] {
				haveRegion = false
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     "setup.cleanup.region",
					Message:  fmt.Sprintf("region corners out of order on %s axis: %d > %d", axes[i], min[i], max[i]),
					Severity: "error",
				})
			}
		}
		width := max[0] - min[0] + 1
		height := max[1] - min[1] + 1
		depth := max[2] - min[2] + 1
		if width > MaxWidth {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "setup.cleanup.region",
				Message:  fmt.Sprintf("region width %d exceeds maximum %d", width, MaxWidth),
				Severity: "error",
			})
		}
		if height > MaxHeight {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "setup.cleanup.region",
				Message:  fmt.Sprintf("region height %d exceeds maximum %d", height, MaxHeight),
				Severity: "error",
			})
		}
		if depth > MaxDepth {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "setup.cleanup.region",
				Message:  fmt.Sprintf("region depth %d exceeds maximum %d", depth, MaxDepth),
				Severity: "error",
			})
		}
	}

	// Player setup: slot names and hotbar selection.
	if ts.Setup != nil && ts.Setup.Player != nil {
		player := ts.Setup.Player
		for slot := range player.Inventory {
			if !slot.Valid() {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     fmt.Sprintf("setup.player.inventory.%s", slot),
					Message:  fmt.Sprintf("unknown player slot %q", slot),
					Severity: "error",
				})
			}
		}
		if player.SelectedHotbar < 1 || player.SelectedHotbar > 9 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "setup.player.selected_hotbar",
				Message:  fmt.Sprintf("selected_hotbar %d out of range 1-9", player.SelectedHotbar),
				Severity: "error",
			})
		}
	}

	// Timeline entries: non-negative ticks, every position inside the
	// cleanup region. Positions are only checked when the region itself
	// validated cleanly.
	checkPos := func(path string, pos Pos) {
		if haveRegion && !region.Contains(pos) {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  fmt.Sprintf("position [%d, %d, %d] is outside the cleanup region", pos[0], pos[1], pos[2]),
				Severity: "error",
			})
		}
	}

	for i, entry := range ts.Timeline {
		prefix := fmt.Sprintf("timeline[%d]", i)
		for _, tick := range entry.At {
			if tick < 0 {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     prefix + ".at",
					Message:  fmt.Sprintf("negative tick %d", tick),
					Severity: "error",
				})
			}
		}
		switch a := entry.Action.(type) {
		case Place:
			checkPos(prefix+".pos", a.Pos)
		case PlaceEach:
			for j, placement := range a.Blocks {
				checkPos(fmt.Sprintf("%s.blocks[%d].pos", prefix, j), placement.Pos)
			}
		case Fill:
			normalized := a.Region.Normalized()
			checkPos(prefix+".region", normalized[0])
			checkPos(prefix+".region", normalized[1])
		case Remove:
			checkPos(prefix+".pos", a.Pos)
		case Assert:
			for j, check := range a.Checks {
				checkPos(fmt.Sprintf("%s.checks[%d].pos", prefix, j), check.Pos)
			}
		case UseItemOn:
			checkPos(prefix+".pos", a.Pos)
		}
	}

	// Breakpoints past the last action never fire.
	maxTick := ts.MaxTick()
	for i, bp := range ts.Breakpoints {
		if bp < 0 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     fmt.Sprintf("breakpoints[%d]", i),
				Message:  fmt.Sprintf("negative breakpoint tick %d", bp),
				Severity: "error",
			})
		} else if bp > maxTick {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     fmt.Sprintf("breakpoints[%d]", i),
				Message:  fmt.Sprintf("breakpoint tick %d is past the last timeline tick %d", bp, maxTick),
				Severity: "warning",
			})
		}
	}

	return errs
}
