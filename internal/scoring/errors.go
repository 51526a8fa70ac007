package scoring

import "fmt"

// VocabularyError represents an unreadable or invalid vocabulary file
type VocabularyError struct {
	Path    string
	Message string
	Cause   error
}

func (e *VocabularyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vocabulary error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("vocabulary error (%s): %s", e.Path, e.Message)
}

func (e *VocabularyError) Unwrap() error {
	return e.Cause
}

// BudgetError reports factor max values that do not sum to the score ceiling
type BudgetError struct {
	Total int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("factor max values sum to %d, expected %d", e.Total, MaxScore)
}
