package auth

// Signal is the outcome of authentication-state resolution for one inbound
// event. It is recomputed per event and never persisted.
type Signal int

const (
	Authenticated Signal = iota
	NotAuthenticated
	NotRegistered
	TransientError
)

func (s Signal) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case NotAuthenticated:
		return "not_authenticated"
	case NotRegistered:
		return "not_registered"
	case TransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}
