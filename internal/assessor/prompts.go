package assessor

const qualityPrompt = `You are an evidence quality assessor. Evaluate the following piece of evidence on each dimension, scoring every dimension between 0.0 and 1.0.

Dimensions:
- factual_accuracy: how factually correct the content appears
- source_credibility: how trustworthy the source is
- methodological_rigor: how sound the underlying methodology is
- completeness: how complete the evidence is for its claim
- bias_level: 1.0 = least biased, 0.0 = most biased
- relevance: how relevant the evidence is to its stated domain
- logical_consistency: how internally consistent the content is
- overall_quality: your overall quality judgment

Respond ONLY with JSON, no markdown:
{"factual_accuracy":0.0,"source_credibility":0.0,"methodological_rigor":0.0,"completeness":0.0,"bias_level":0.0,"relevance":0.0,"logical_consistency":0.0,"overall_quality":0.0,"confidence_in_assessment":0.0,"notes":"brief justification"}

Omit a dimension only if it is genuinely not assessable for this evidence.

Evidence type: %s
Source: %s
Domain: %s
Content:
%s`

const likelihoodPrompt = `You are a likelihood estimator for Bayesian analysis. Given a hypothesis and a piece of evidence, estimate:
- likelihood_given_hypothesis: P(observing this evidence | hypothesis is true), in [0,1]
- likelihood_given_not_hypothesis: P(observing this evidence | hypothesis is false), in [0,1]
- diagnosticity: how well this evidence discriminates between the hypothesis and its negation, in [0,1]
- confidence_in_likelihood: your confidence in these estimates, in [0,1]

Respond ONLY with JSON, no markdown:
{"likelihood_given_hypothesis":0.0,"likelihood_given_not_hypothesis":0.0,"diagnosticity":0.0,"reasoning":"brief reason","confidence_in_likelihood":0.0}

Hypothesis: %s

Evidence (type: %s, source: %s):
%s`
