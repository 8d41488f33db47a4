package option

import (
	"github.com/bgrewell/udf-kit/pkg/logging"
)

// OpenOptions controls how a UDF volume is opened and resolved.
type OpenOptions struct {
	// ParseOnOpen resolves the full volume metadata immediately when the
	// image is opened. When false the caller must invoke Parse itself.
	ParseOnOpen bool
	// RecognitionCheck runs the Volume Recognition Sequence scan before
	// any structural parsing and refuses non-UDF images.
	RecognitionCheck bool
	// MaxDescriptorSectors caps how many sectors of the Volume Descriptor
	// Sequence are walked when the anchor's extent declares no length.
	MaxDescriptorSectors uint32
	// Logger receives parse diagnostics. Defaults to a discard logger.
	Logger *logging.Logger
}

type OpenOption func(*OpenOptions)

func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

func WithParseOnOpen(parseOnOpen bool) OpenOption {
	return func(o *OpenOptions) {
		o.ParseOnOpen = parseOnOpen
	}
}

func WithRecognitionCheck(enabled bool) OpenOption {
	return func(o *OpenOptions) {
		o.RecognitionCheck = enabled
	}
}

func WithMaxDescriptorSectors(sectors uint32) OpenOption {
	return func(o *OpenOptions) {
		o.MaxDescriptorSectors = sectors
	}
}
