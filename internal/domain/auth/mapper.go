package auth

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// The auth API grew organically and its endpoints disagree on payload shape:
// login nests the user under data.user, older profile responses return it at
// the top level, and individual fields drift between snake_case and
// camelCase. MapUser is the single place that absorbs that drift; every call
// site (login, signup, bootstrap, profile update) must produce identical
// users for equivalent payloads.

// JMESPath expressions, tried in order via ||, that locate each field across
// the known payload variants.
const (
	userExpr   = "data.user || user || data || @"
	idExpr     = "id || _id || user_id || userId"
	emailExpr  = "email"
	nameExpr   = "username || userName || handle"
	firstExpr  = "first_name || firstName || given_name"
	lastExpr   = "last_name || lastName || family_name"
	roleExpr   = "role || user_role"
	avatarExpr = "avatar_url || avatarUrl || avatar || picture"
)

// MapUser extracts the canonical User record from a raw server payload. The
// payload may be the full response envelope or the bare user object; both
// resolve through userExpr. Returns an error when no user object or no
// stable identifier can be located.
func MapUser(payload any) (*User, error) {
	raw, err := jmespath.Search(userExpr, payload)
	if err != nil {
		return nil, fmt.Errorf("locate user object: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, fmt.Errorf("payload carries no user object")
	}

	id := stringAt(obj, idExpr)
	if id == "" {
		return nil, fmt.Errorf("user object carries no identifier")
	}

	u := &User{
		ID:        id,
		Email:     stringAt(obj, emailExpr),
		Username:  stringAt(obj, nameExpr),
		FirstName: stringAt(obj, firstExpr),
		LastName:  stringAt(obj, lastExpr),
		Role:      NormalizeRole(stringAt(obj, roleExpr)),
		AvatarURL: stringAt(obj, avatarExpr),
	}

	// Some responses carry a single display name instead of split fields.
	if u.FirstName == "" && u.LastName == "" {
		if full := stringAt(obj, "name || display_name || displayName || full_name"); full != "" {
			u.FirstName, u.LastName = SplitDisplayName(full)
		}
	}

	decodeSub(obj, "profile", &u.Profile)
	decodeSub(obj, "settings || preferences", &u.Settings)

	return u, nil
}

// MapUserJSON decodes raw JSON and maps it through MapUser.
func MapUserJSON(data []byte) (*User, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode user payload: %w", err)
	}
	return MapUser(payload)
}

// stringAt evaluates expr against obj and returns the result as a string.
// Non-string scalars (numeric IDs) are formatted; anything else yields "".
func stringAt(obj map[string]any, expr string) string {
	v, err := jmespath.Search(expr, obj)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; IDs are whole numbers in practice.
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}

// decodeSub re-marshals a nested object into the typed sub-record. Drift in
// unknown fields is dropped silently; a missing or malformed sub-record
// leaves the zero value in place.
func decodeSub(obj map[string]any, expr string, dst any) {
	v, err := jmespath.Search(expr, obj)
	if err != nil || v == nil {
		return
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, dst)
}
