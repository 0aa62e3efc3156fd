// Package config supplies the job-wide settings the graph compiler consults:
// default max-parallelism, stable-identifier policy and the serializer
// factory. The compiler reads these; it never owns them.
package config

import (
	"time"

	"github.com/streamweave/streamweave/internal/types"
)

// Job holds job-wide compilation settings.
type Job struct {
	Name                   string `yaml:"name" validate:"required,min=1,max=100"`
	DefaultMaxParallelism  int    `yaml:"default_max_parallelism,omitempty" validate:"omitempty,min=1,max=32768"`
	AutoGeneratedUIDs      *bool  `yaml:"auto_generated_uids,omitempty"`
	DefaultBufferTimeoutMS *int64 `yaml:"default_buffer_timeout_ms,omitempty" validate:"omitempty,min=0"`

	serializers types.SerializerFactory
}

// Default returns a Job with permissive defaults.
func Default(name string) *Job {
	return &Job{Name: name}
}

// HasAutoGeneratedUIDs reports whether operators without a uid or hash are
// acceptable. Defaults to true.
func (j *Job) HasAutoGeneratedUIDs() bool {
	return j.AutoGeneratedUIDs == nil || *j.AutoGeneratedUIDs
}

// DefaultBufferTimeout returns the buffer timeout applied to transformations
// that declare none; ok is false when no default is configured.
func (j *Job) DefaultBufferTimeout() (time.Duration, bool) {
	if j.DefaultBufferTimeoutMS == nil {
		return 0, false
	}
	return time.Duration(*j.DefaultBufferTimeoutMS) * time.Millisecond, true
}

// SerializerFactory returns the configured factory, falling back to the
// basic name-keyed factory.
func (j *Job) SerializerFactory() types.SerializerFactory {
	if j.serializers == nil {
		return types.BasicSerializerFactory{}
	}
	return j.serializers
}

// SetSerializerFactory overrides the serializer factory.
func (j *Job) SetSerializerFactory(factory types.SerializerFactory) {
	j.serializers = factory
}
