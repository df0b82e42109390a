package authcore

import "context"

type clientIPContextKey struct{}
type locationContextKey struct{}

// WithClientIP attaches the caller's source IP to ctx. The engine stamps it
// into every audit entry produced by the request. When absent, entries
// record "unknown".
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithLocation attaches a best-effort geographic label (for example from a
// GeoIP lookup in the transport layer) to ctx for audit entries. When
// absent, entries record "Unknown".
func WithLocation(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, locationContextKey{}, location)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ActorUnknown
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	if ip == "" {
		return ActorUnknown
	}
	return ip
}

func locationFromContext(ctx context.Context) string {
	if ctx == nil {
		return "Unknown"
	}
	location, _ := ctx.Value(locationContextKey{}).(string)
	if location == "" {
		return "Unknown"
	}
	return location
}
