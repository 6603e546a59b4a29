package providers

import "net/url"

// The state query parameter round-trips the post-login redirect target
// through the provider: the authorize URL carries it out, the provider
// echoes it back on the callback. Wire format is a nested query string,
// "redirect=<percent-encoded target>", which the authorize URL then encodes
// once more as a whole query value. Downstream consoles depend on this
// format byte-for-byte.

// EncodeRedirectState encodes a redirect target for the state parameter.
// An empty target yields the empty string, meaning no state parameter is
// emitted at all.
func EncodeRedirectState(target string) string {
	if target == "" {
		return ""
	}
	return url.Values{"redirect": {target}}.Encode()
}

// DecodeRedirectState recovers the redirect target carried by a state value.
// The boolean is false when the state is empty, unparseable, or carries no
// redirect key.
func DecodeRedirectState(state string) (string, bool) {
	if state == "" {
		return "", false
	}
	vals, err := url.ParseQuery(state)
	if err != nil {
		return "", false
	}
	target := vals.Get("redirect")
	if target == "" {
		return "", false
	}
	return target, true
}
