package alarm

// Actor identifies who performed an operator action.
type Actor struct {
	// Hostname is the machine the action came from.
	Hostname string `json:"hostname"`
	// Username is the operating system user.
	Username string `json:"username"`
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	switch {
	case a == nil:
		return ""
	case a.Hostname == "":
		return a.Username
	case a.Username == "":
		return a.Hostname
	default:
		return a.Username + "@" + a.Hostname
	}
}
