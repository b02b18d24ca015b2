package query

import "fmt"

// ValidationError reports a predicate that cannot be applied to a target.
type ValidationError struct {
	Target    Target
	Predicate string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("predicate %s is not applicable to %s", e.Predicate, e.Target)
}

// Validate checks that p only uses predicates applicable to target.
// A nil predicate is treated as All.
func Validate(p Predicate, target Target) error {
	switch pred := p.(type) {
	case nil, All, *All, ByID, *ByID:
		return nil
	case NameIs, *NameIs, HasTag, *HasTag, AutoOnly, *AutoOnly:
		if target != TargetGroups {
			return &ValidationError{Target: target, Predicate: fmt.Sprintf("%T", p)}
		}
		return nil
	case ParentIs, *ParentIs, HasChild, *HasChild:
		if target != TargetEdges {
			return &ValidationError{Target: target, Predicate: fmt.Sprintf("%T", p)}
		}
		return nil
	case And:
		return validateAll(pred.Predicates, target)
	case *And:
		return validateAll(pred.Predicates, target)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateAll(preds []Predicate, target Target) error {
	for i, p := range preds {
		if err := Validate(p, target); err != nil {
			return fmt.Errorf("and[%d]: %w", i, err)
		}
	}
	return nil
}
