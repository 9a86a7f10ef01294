package shared

import "context"

// CorrelationIDHeader carries the correlation id across HTTP hops
const CorrelationIDHeader = "X-Correlation-ID"

type correlationKey struct{}

// WithCorrelationID stores id on ctx so outbound calls and events can propagate it
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
