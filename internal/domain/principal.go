package domain

// Principal is the authenticated caller's identity plus privilege level. It is
// passed explicitly into every service call, never read from ambient state.
type Principal struct {
	UserID   string
	Username string
	IsAdmin  bool
}
