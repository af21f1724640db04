// Package identity supplies the current-user id the aggregation pipelines
// read at subscription time.
package identity

// Provider reports the authenticated user for one subscription scope.
// An empty id means unauthenticated; the pipelines treat that as a valid
// terminal state, not an error.
type Provider interface {
	CurrentUserID() string
}

// Static is a Provider with a fixed user id. The push daemon binds one per
// connection from the verified token; tests use it directly.
type Static string

func (s Static) CurrentUserID() string {
	return string(s)
}

// Anonymous is the unauthenticated Provider.
var Anonymous = Static("")
