package tasks

import "context"

// Form holds the draft text of the task being typed.
type Form struct {
	Draft string
}

// Submit adds the draft to s. The draft is cleared only when a task was
// created; a blank draft is left untouched.
func (f *Form) Submit(ctx context.Context, s *Store) (Task, bool, error) {
	t, ok, err := s.Add(ctx, f.Draft)
	if ok {
		f.Draft = ""
	}
	return t, ok, err
}
