package plan

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	streamweaveerrors "github.com/streamweave/streamweave/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParsePlan loads a plan file from disk, validates it, and returns the
// resulting model.
func ParsePlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, streamweaveerrors.NewParseError(path, 0, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, streamweaveerrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidatePlan(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// ValidatePlan performs schema validation followed by the semantic checks
// the struct tags cannot express: duplicate ids, unknown references, and
// kind-specific required fields.
func ValidatePlan(p *Plan) error {
	if p == nil {
		return streamweaveerrors.NewValidationError("plan", "plan is nil", nil)
	}

	if err := validatorInstance().Struct(p); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return streamweaveerrors.NewValidationError(first.Namespace(),
				fmt.Sprintf("failed on the %q rule", first.Tag()), err)
		}
		return streamweaveerrors.NewValidationError("plan", err.Error(), err)
	}

	seen := make(map[string]struct{}, len(p.Transformations))
	for i := range p.Transformations {
		decl := &p.Transformations[i]
		if _, dup := seen[decl.ID]; dup {
			return streamweaveerrors.NewValidationError(decl.ID, "duplicate transformation id", nil)
		}
		seen[decl.ID] = struct{}{}
	}

	for i := range p.Transformations {
		decl := &p.Transformations[i]
		if err := validateDecl(decl, seen); err != nil {
			return err
		}
	}

	return nil
}

func validateDecl(decl *Decl, ids map[string]struct{}) error {
	fail := func(msg string) error {
		return streamweaveerrors.NewValidationError(decl.ID, msg, nil)
	}
	ref := func(field, id string) error {
		if id == "" {
			return fail(fmt.Sprintf("%s kind requires %q", decl.Kind, field))
		}
		if _, ok := ids[id]; !ok {
			return fail(fmt.Sprintf("%s references unknown transformation %q", field, id))
		}
		return nil
	}

	switch decl.Kind {
	case "source":
		if decl.Operator == "" {
			return fail("source kind requires \"operator\"")
		}
		if decl.OutputType == "" {
			return fail("source kind requires \"output_type\"")
		}
	case "sink":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if decl.Operator == "" {
			return fail("sink kind requires \"operator\"")
		}
	case "map":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if decl.Operator == "" {
			return fail("map kind requires \"operator\"")
		}
		if decl.OutputType == "" {
			return fail("map kind requires \"output_type\"")
		}
	case "two_input":
		if err := ref("input1", decl.Input1); err != nil {
			return err
		}
		if err := ref("input2", decl.Input2); err != nil {
			return err
		}
		if decl.Operator == "" {
			return fail("two_input kind requires \"operator\"")
		}
		if decl.OutputType == "" {
			return fail("two_input kind requires \"output_type\"")
		}
	case "union":
		if len(decl.Inputs) == 0 {
			return fail("union kind requires \"inputs\"")
		}
		for _, id := range decl.Inputs {
			if err := ref("inputs", id); err != nil {
				return err
			}
		}
	case "partition":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if decl.Partitioner == "" {
			return fail("partition kind requires \"partitioner\"")
		}
		if decl.Partitioner == "hash" && decl.Key == "" {
			return fail("hash partitioner requires \"key\"")
		}
	case "split":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if decl.Selector == "" {
			return fail("split kind requires \"selector\"")
		}
	case "select":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if len(decl.SelectedNames) == 0 {
			return fail("select kind requires \"selected_names\"")
		}
	case "side_output":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		if decl.Tag == "" || decl.TagType == "" {
			return fail("side_output kind requires \"tag\" and \"tag_type\"")
		}
	case "feedback":
		if err := ref("input", decl.Input); err != nil {
			return err
		}
		for _, id := range decl.FeedbackEdges {
			if err := ref("feedback_edges", id); err != nil {
				return err
			}
		}
	case "co_feedback":
		if decl.FeedbackType == "" {
			return fail("co_feedback kind requires \"feedback_type\"")
		}
		for _, id := range decl.FeedbackEdges {
			if err := ref("feedback_edges", id); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
