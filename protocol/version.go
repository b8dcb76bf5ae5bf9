package protocol

// Version is the (major, minor, bugfix) tuple spec.md §6 says is
// "exchanged during handshake on data-plane connections; major mismatch
// ⇒ abort."
type Version struct {
	Major, Minor, Bugfix uint16
}

// Compatible reports whether a handshake against other should proceed:
// only the major component gates compatibility.
func (v Version) Compatible(other Version) bool { return v.Major == other.Major }

// CheckVersion returns a BadVersion Error if local and remote have
// incompatible majors, nil otherwise.
func CheckVersion(local, remote Version) error {
	if !local.Compatible(remote) {
		return &Error{Kind: BadVersion}
	}
	return nil
}
