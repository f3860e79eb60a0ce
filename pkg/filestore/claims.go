package filestore

import (
	"encoding/json"
	"strings"
)

// Claim names checked, in order of precedence, when deriving an identity.
// The shapes mirror what Cognito-style authorizers put in a token: groups
// may arrive as a real list, a comma- or space-separated string, or a
// string that looks like a JSON array.
var (
	usernameClaims = []string{"email", "cognito:username", "username", "sub"}
	groupClaims    = []string{"cognito:groups", "groups", "custom:groups"}
)

// ParseIdentity derives an Identity from a raw claims map. It never fails:
// a nil or empty map yields the anonymous identity (sentinel username,
// no email, no groups).
func ParseIdentity(claims map[string]interface{}) Identity {
	id := Identity{Username: UnknownUser}
	if len(claims) == 0 {
		return id
	}

	for _, name := range usernameClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			id.Username = v
			break
		}
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}

	for _, name := range groupClaims {
		raw, ok := claims[name]
		if !ok || raw == nil {
			continue
		}
		if groups := parseGroups(raw); len(groups) > 0 {
			id.Groups = groups
			break
		}
	}

	return id
}

// parseGroups normalizes the many shapes a groups claim shows up in.
func parseGroups(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return dropEmpty(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return dropEmpty(out)
	case string:
		return parseGroupString(v)
	default:
		return nil
	}
}

func parseGroupString(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// A string shaped like a JSON array: try a real parse first, fall back
	// to stripping brackets and quotes.
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var groups []string
		if err := json.Unmarshal([]byte(raw), &groups); err == nil {
			return dropEmpty(groups)
		}
		stripped := strings.Trim(raw, "[]")
		stripped = strings.ReplaceAll(stripped, `"`, "")
		stripped = strings.ReplaceAll(stripped, ",", " ")
		return dropEmpty(strings.Fields(stripped))
	}

	if strings.Contains(raw, ",") {
		return dropEmpty(strings.Split(raw, ","))
	}
	return dropEmpty(strings.Fields(raw))
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
