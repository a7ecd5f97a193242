package service

import (
	"fmt"
	"math"

	"github.com/credence-ai/credence/internal/domain"
	"go.uber.org/zap"
)

// DefaultMaxLogBayesFactor caps the strength a single piece of
// evidence can contribute in log-odds space. It is also the guarded
// fallback when likelihood_given_not_hypothesis is zero.
const DefaultMaxLogBayesFactor = 5.0

func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// BayesEngine performs single Bayesian updates in log-odds space.
// Update is pure and deterministic: identical inputs always produce
// identical outputs, which the audit trail depends on.
type BayesEngine struct {
	logger *zap.Logger

	// MaxLogBayesFactor is the single-evidence strength cap.
	MaxLogBayesFactor float64
}

func NewBayesEngine(logger *zap.Logger) *BayesEngine {
	return &BayesEngine{
		logger:            logger,
		MaxLogBayesFactor: DefaultMaxLogBayesFactor,
	}
}

// Update applies one weighted Bayesian update to prior and returns the
// audit record. The prior must lie strictly inside (0,1) and every
// input must be finite; violations fail fast with a DomainError and
// are never silently clamped.
func (e *BayesEngine) Update(prior, likelihoodH, likelihoodNotH, weight float64) (domain.BeliefUpdate, error) {
	for _, in := range []struct {
		name string
		v    float64
	}{
		{"prior", prior},
		{"likelihood_given_hypothesis", likelihoodH},
		{"likelihood_given_not_hypothesis", likelihoodNotH},
		{"weight", weight},
	} {
		if math.IsNaN(in.v) || math.IsInf(in.v, 0) {
			return domain.BeliefUpdate{}, &domain.DomainError{
				Op:     "bayes.update",
				Detail: fmt.Sprintf("%s is not a finite number", in.name),
			}
		}
	}
	if prior <= 0 || prior >= 1 {
		return domain.BeliefUpdate{}, &domain.DomainError{
			Op:     "bayes.update",
			Detail: fmt.Sprintf("prior %g outside the open interval (0,1)", prior),
		}
	}

	var logBF float64
	switch {
	case likelihoodNotH <= 0:
		// Division guard: treat as maximally supportive evidence,
		// capped at the configured single-evidence strength.
		logBF = e.MaxLogBayesFactor
	case likelihoodH <= 0:
		// Symmetric guard for the log of zero.
		logBF = -e.MaxLogBayesFactor
	default:
		logBF = math.Log(likelihoodH / likelihoodNotH)
		if logBF > e.MaxLogBayesFactor {
			logBF = e.MaxLogBayesFactor
		}
		if logBF < -e.MaxLogBayesFactor {
			logBF = -e.MaxLogBayesFactor
		}
	}
	// The audit record carries the applied factor, not the raw ratio:
	// past the cap the raw ratio no longer describes the update, and in
	// the zero-likelihood guards it is not even finite.
	bayesFactor := math.Exp(logBF)

	weightedLogBF := weight * logBF

	var posterior float64
	if weightedLogBF == 0 {
		// Zero-information update: the posterior is the prior exactly,
		// not the prior passed through a logit/sigmoid round trip.
		posterior = domain.ClampBelief(prior)
	} else {
		posterior = domain.ClampBelief(Sigmoid(Logit(prior) + weightedLogBF))
	}

	e.logger.Debug("bayesian update",
		zap.Float64("prior", prior),
		zap.Float64("bayes_factor", bayesFactor),
		zap.Float64("weight", weight),
		zap.Float64("posterior", posterior))

	return domain.BeliefUpdate{
		Prior:        prior,
		Posterior:    posterior,
		Weight:       weight,
		BayesFactor:  bayesFactor,
		BeliefChange: posterior - prior,
	}, nil
}
