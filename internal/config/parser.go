package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	streamweaveerrors "github.com/streamweave/streamweave/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseJob loads a job configuration file from disk, validates it, and
// returns the resulting model.
func ParseJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, streamweaveerrors.NewParseError(path, 0, err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, streamweaveerrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateJob(&job); err != nil {
		return nil, err
	}

	return &job, nil
}

// ValidateJob performs schema validation on the job settings.
func ValidateJob(job *Job) error {
	if job == nil {
		return streamweaveerrors.NewValidationError("job", "job configuration is nil", nil)
	}

	if err := validator.New().Struct(job); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return streamweaveerrors.NewValidationError(first.Namespace(),
				fmt.Sprintf("failed on the %q rule", first.Tag()), err)
		}
		return streamweaveerrors.NewValidationError("job", err.Error(), err)
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
