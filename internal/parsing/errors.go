package parsing

import "fmt"

// LexiconError represents a lexicon entry that could not be compiled into a matcher
type LexiconError struct {
	Section string
	Entry   string
	Cause   error
}

func (e *LexiconError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lexicon error: %s %q: %v", e.Section, e.Entry, e.Cause)
	}
	return fmt.Sprintf("lexicon error: %s %q", e.Section, e.Entry)
}

func (e *LexiconError) Unwrap() error {
	return e.Cause
}
