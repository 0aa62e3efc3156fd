// Package plan defines the declarative YAML plan format describing a
// transformation tree, and the builder that turns a parsed plan into the
// transformation values the graph generator consumes.
package plan

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Plan is the top-level document: an ordered list of transformation
// declarations referencing each other by id.
type Plan struct {
	Transformations []Decl `yaml:"transformations" validate:"required,min=1,dive"`
}

// Decl declares one transformation. Which fields are meaningful depends on
// the kind; kind-specific requirements are enforced by ValidatePlan, not by
// struct tags.
type Decl struct {
	ID   string `yaml:"id" validate:"required,plan_id"`
	Kind string `yaml:"kind" validate:"required,oneof=source sink map two_input union partition split select side_output feedback co_feedback"`

	// Name defaults to the id when empty.
	Name     string `yaml:"name"`
	Operator string `yaml:"operator"`

	OutputType  string `yaml:"output_type"`
	Parallelism int    `yaml:"parallelism" validate:"omitempty,min=1"`

	// Forward inputs. Input is used by single-input kinds, Input1/Input2 by
	// two_input, Inputs by union.
	Input  string   `yaml:"input"`
	Input1 string   `yaml:"input1"`
	Input2 string   `yaml:"input2"`
	Inputs []string `yaml:"inputs"`

	// Routing and selection.
	Partitioner   string   `yaml:"partitioner" validate:"omitempty,oneof=forward rebalance broadcast shuffle rescale global hash"`
	Selector      string   `yaml:"selector"`
	SelectedNames []string `yaml:"selected_names"`
	Tag           string   `yaml:"tag"`
	TagType       string   `yaml:"tag_type"`

	// Iterations.
	FeedbackEdges []string `yaml:"feedback_edges"`
	FeedbackType  string   `yaml:"feedback_type"`
	WaitTimeMS    int64    `yaml:"wait_time_ms" validate:"omitempty,min=0"`

	// Keyed state.
	Key      string `yaml:"key"`
	Key2     string `yaml:"key2"`
	KeyType  string `yaml:"key_type"`
	FilePath string `yaml:"file_path"`

	// Operator placement and tuning knobs.
	UID              string `yaml:"uid"`
	UserHash         string `yaml:"user_hash"`
	SlotSharingGroup string `yaml:"slot_sharing_group"`
	CoLocationGroup  string `yaml:"co_location_group"`
	MaxParallelism   int    `yaml:"max_parallelism" validate:"omitempty,min=1"`
	BufferTimeoutMS  *int64 `yaml:"buffer_timeout_ms"`

	Resources *ResourcesDecl `yaml:"resources"`
}

// ResourcesDecl declares the resource profile of one transformation.
type ResourcesDecl struct {
	MinCPUCores       float64 `yaml:"min_cpu_cores" validate:"omitempty,min=0"`
	MinMemoryMB       int     `yaml:"min_memory_mb" validate:"omitempty,min=0"`
	PreferredCPUCores float64 `yaml:"preferred_cpu_cores" validate:"omitempty,min=0"`
	PreferredMemoryMB int     `yaml:"preferred_memory_mb" validate:"omitempty,min=0"`
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	planIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// validatorInstance configures and returns the shared validator instance used
// across the plan package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("plan_id", func(fl validator.FieldLevel) bool {
			return planIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}
