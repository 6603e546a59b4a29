package providers

// Identity is the normalized result of a successful login. Every provider
// variant maps its own field names and endpoint shapes onto this one record;
// the session layer owns it once FetchIdentity returns.
type Identity struct {
	// Username is the provider's login or handle. Never empty.
	Username string `json:"username"`

	// FullName is the display name, when the provider exposes one.
	FullName string `json:"full_name,omitempty"`

	// Email is the canonical address. Providers exposing several candidates
	// contribute the one marked primary and verified; absence is possible.
	Email string `json:"email,omitempty"`

	// AvatarURL points at the profile picture, when the provider exposes one.
	AvatarURL string `json:"avatar_url,omitempty"`

	// Groups are the membership paths used for permission matching. The
	// ordering is deterministic per provider: discovery order for plain
	// organization or group lists, and the flattened form described in
	// providers/github for team hierarchies.
	Groups []string `json:"groups,omitempty"`
}

// Clone returns a deep copy, so stores can hand out identities without
// sharing the Groups slice.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	out := *id
	if id.Groups != nil {
		out.Groups = make([]string, len(id.Groups))
		copy(out.Groups, id.Groups)
	}
	return &out
}
