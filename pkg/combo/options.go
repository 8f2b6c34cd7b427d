package combo

import (
	"errors"

	"github.com/dd0wney/cluso-combo/pkg/logging"
	"github.com/dd0wney/cluso-combo/pkg/metrics"
	"github.com/dd0wney/cluso-combo/pkg/partition"
	"github.com/dd0wney/cluso-combo/pkg/perturb"
	"github.com/dd0wney/cluso-combo/pkg/validation"
)

// Unlimited disables the community bound.
const Unlimited = partition.Unlimited

// RandomSeedFromEntropy asks for a seed drawn from system entropy.
const RandomSeedFromEntropy = -1

// Options tunes a run. Start from DefaultOptions: the zero value has a
// community bound of 0, which is rejected.
type Options struct {
	// MaxCommunities bounds the number of communities; Unlimited (-1)
	// disables the bound.
	MaxCommunities int `validate:"community_cap"`
	// Resolution is γ in the modularity null-model term.
	Resolution float64 `validate:"gte=0"`
	// SplitAttempts is the perturbation budget; 0 sizes it from the node
	// count.
	SplitAttempts int `validate:"gte=0"`
	// FixedSplitStep uses a fixed split pattern on every
	// FixedSplitStep-th attempt; 0 uses random splits only.
	FixedSplitStep int `validate:"gte=0"`
	// RandomSeed seeds the run; RandomSeedFromEntropy picks one at random.
	RandomSeed int64
	// StartSeparate starts from singletons instead of one community.
	StartSeparate bool
	// Workers bounds bisection parallelism; 0 uses GOMAXPROCS.
	Workers int `validate:"gte=0"`
	// IntermediateResultsPath, when set, receives the best labels after
	// every improvement.
	IntermediateResultsPath string

	Logger   logging.Logger    `validate:"-"`
	Metrics  *metrics.Registry `validate:"-"`
	Observer perturb.Observer  `validate:"-"`
}

// DefaultOptions returns unlimited communities, resolution 1, an automatic
// attempt budget, random splits only, an entropy seed and singleton start.
func DefaultOptions() Options {
	return Options{
		MaxCommunities: Unlimited,
		Resolution:     1,
		RandomSeed:     RandomSeedFromEntropy,
		StartSeparate:  true,
	}
}

// Validate reports the first invalid option as a *ParameterError.
func (o Options) Validate() error {
	err := validation.NewConfigValidator("Options").
		Add(validation.Struct(o)).
		FiniteFloat("Resolution", o.Resolution).
		Validate()
	if err == nil {
		return nil
	}

	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &ParameterError{Field: fe.Field, Reason: fe.Message, Cause: err}
	}
	return &ParameterError{Field: "Options", Reason: err.Error(), Cause: err}
}
