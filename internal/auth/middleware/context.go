package auth

import "context"

type subjectKey struct{}

// WithSubject records the authenticated staff user on ctx.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the staff user, or "anonymous" on routes
// outside the JWT group.
func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey{}).(string); ok && s != "" {
		return s
	}
	return "anonymous"
}
