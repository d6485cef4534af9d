package middleware

import "context"

type contextKey string

const (
	ctxStaffID    contextKey = "staff_id"
	ctxStaffRole  contextKey = "staff_role"
	ctxStaffEmail contextKey = "staff_email"
)

func StaffIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxStaffID).(string); ok {
		return v
	}
	return ""
}

func StaffRoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxStaffRole).(string); ok {
		return v
	}
	return ""
}

func StaffEmailFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxStaffEmail).(string); ok {
		return v
	}
	return ""
}

// WithStaff seeds the context with staff identity; used by handlers and tests.
func WithStaff(ctx context.Context, staffID, role, email string) context.Context {
	ctx = context.WithValue(ctx, ctxStaffID, staffID)
	ctx = context.WithValue(ctx, ctxStaffRole, role)
	return context.WithValue(ctx, ctxStaffEmail, email)
}
