package graph

import "errors"

// Configuration errors, raised while building a model or realizing GPU state.
var (
	// ErrDuplicateName is returned when two declarations of the same kind share a name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnresolvedReference is returned when a declaration names a resource,
	// bind group, pipeline, or pass that the model does not declare.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrIncompatibleUsage is returned when a binding or attachment references a
	// resource whose declared type cannot serve that role.
	ErrIncompatibleUsage = errors.New("incompatible resource usage")

	// ErrShaderEntryPointMissing is returned when a pipeline's shader source does
	// not define a declared entry point.
	ErrShaderEntryPointMissing = errors.New("shader entry point missing")

	// ErrCyclicDependency is returned when the pass dependency relation contains
	// a cycle.
	ErrCyclicDependency = errors.New("cyclic pass dependency")
)

// Resource errors, raised by registry operations.
var (
	// ErrUnknownResource is returned when an operation names a resource the
	// registry does not hold.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrOutOfBounds is returned when a write or binding range exceeds the extent
	// of its target resource.
	ErrOutOfBounds = errors.New("range out of bounds")
)

// Frame errors, raised while validating or executing a frame's draw data.
var (
	// ErrUnknownPass is returned when frame draw data names a pass the built
	// graph does not contain.
	ErrUnknownPass = errors.New("unknown pass")

	// ErrUnknownPipeline is returned when a draw call names a pipeline not
	// declared for its pass.
	ErrUnknownPipeline = errors.New("unknown pipeline")

	// ErrIndexOutOfRange is returned when a draw call's index or instance range
	// exceeds the bound buffer contents.
	ErrIndexOutOfRange = errors.New("draw range out of bounds")

	// ErrGraphNotBuilt is returned when a frame is submitted before the pass
	// graph has been built.
	ErrGraphNotBuilt = errors.New("pass graph not built")
)
