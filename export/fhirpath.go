package export

import (
	"fmt"

	"github.com/gofhir/fhirpath"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/cache"
)

// Evaluator runs FHIRPath expressions against exported FHIR JSON.
// Compiled expressions are kept in an LRU cache. It is safe for
// concurrent use.
type Evaluator struct {
	exprs *cache.LRU[string, *fhirpath.Expression]
}

// NewEvaluator creates an Evaluator sized by Options.ExpressionCacheSize.
func NewEvaluator(opts ...tm.Option) *Evaluator {
	o := tm.NewOptions(opts...)
	var copts []cache.Option
	if o.Metrics != nil {
		copts = append(copts, cache.WithRecorder(o.Metrics))
	}
	return &Evaluator{
		exprs: cache.New[string, *fhirpath.Expression](o.ExpressionCacheSize, copts...),
	}
}

// Compile returns the compiled form of expr. Syntax errors are
// StatusInvalidArguments.
func (e *Evaluator) Compile(expr string) (*fhirpath.Expression, error) {
	compiled, err := e.exprs.GetOrLoad(expr, func(s string) (*fhirpath.Expression, error) {
		return fhirpath.Compile(s)
	})
	if err != nil {
		return nil, &tm.Error{
			Status:  tm.StatusInvalidArguments,
			Message: fmt.Sprintf("failed to compile FHIRPath expression '%s'", expr),
			Err:     err,
		}
	}
	return compiled, nil
}

// Evaluate runs expr against a JSON resource.
func (e *Evaluator) Evaluate(expr string, resource []byte) (fhirpath.Collection, error) {
	compiled, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	result, err := compiled.Evaluate(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expr, err)
	}
	return result, nil
}

// Strings evaluates expr and renders every result item.
func (e *Evaluator) Strings(expr string, resource []byte) ([]string, error) {
	result, err := e.Evaluate(expr, resource)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result))
	for _, v := range result {
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}

// Bool evaluates expr with FHIRPath truthiness: empty is false, a single
// boolean is its value and any other non-empty result is true.
func (e *Evaluator) Bool(expr string, resource []byte) (bool, error) {
	result, err := e.Evaluate(expr, resource)
	if err != nil {
		return false, err
	}
	if result.Empty() {
		return false, nil
	}
	b, err := result.ToBoolean()
	if err != nil {
		return true, nil //nolint:nilerr // non-boolean collections are truthy
	}
	return b, nil
}

// CacheStats returns expression cache statistics.
func (e *Evaluator) CacheStats() cache.Stats {
	return e.exprs.Stats()
}
