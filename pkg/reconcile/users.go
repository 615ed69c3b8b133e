package reconcile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrInvalidUsers = errors.New("invalid target users")

// LoadUsersJSON reads a JSON object mapping user names to user records, the
// shape written by the convert command. Each record needs a numeric uid and
// a gid that is a number or a group name.
func LoadUsersJSON(data []byte) ([]TargetUser, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidUsers)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object of users", ErrInvalidUsers)
	}

	var (
		users []TargetUser
		err   error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		var u TargetUser
		u, err = userFromJSON(key.String(), value)
		if err != nil {
			return false
		}
		users = append(users, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func userFromJSON(key string, value gjson.Result) (TargetUser, error) {
	if !value.IsObject() {
		return TargetUser{}, fmt.Errorf("%w: user %q is not an object", ErrInvalidUsers, key)
	}
	fields, _ := normalizeJSON(value.Value()).(map[string]any)

	u := TargetUser{Name: key, Fields: fields}
	if name := value.Get("name"); name.Exists() {
		u.Name = name.String()
	}

	uid := value.Get("uid")
	switch uid.Type {
	case gjson.Number:
		u.UID = int(uid.Int())
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(uid.Str))
		if err != nil {
			return TargetUser{}, fmt.Errorf("%w: user %q has a non-numeric uid %q", ErrInvalidUsers, key, uid.Str)
		}
		u.UID = n
	default:
		return TargetUser{}, fmt.Errorf("%w: user %q has no uid", ErrInvalidUsers, key)
	}

	gid := value.Get("gid")
	switch gid.Type {
	case gjson.Number:
		u.GID = strconv.FormatInt(gid.Int(), 10)
	case gjson.String:
		u.GID = gid.Str
	}
	return u, nil
}

// normalizeJSON turns whole float64 numbers into ints so records print the
// way they were written.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeJSON(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeJSON(item)
		}
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < math.MaxInt32 {
			return int(val)
		}
	}
	return v
}

// UsersFromSnapshot converts a users mapping loaded from a snapshot file.
func UsersFromSnapshot(data map[string]any) ([]TargetUser, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	users := make([]TargetUser, 0, len(data))
	for _, key := range names {
		fields, ok := data[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: user %q is not a mapping", ErrInvalidUsers, key)
		}
		u := TargetUser{Name: key, Fields: fields}
		if name, ok := fields["name"].(string); ok {
			u.Name = name
		}
		switch uid := fields["uid"].(type) {
		case int:
			u.UID = uid
		case string:
			n, err := strconv.Atoi(uid)
			if err != nil {
				return nil, fmt.Errorf("%w: user %q has a non-numeric uid %q", ErrInvalidUsers, key, uid)
			}
			u.UID = n
		default:
			return nil, fmt.Errorf("%w: user %q has no uid", ErrInvalidUsers, key)
		}
		switch gid := fields["gid"].(type) {
		case int:
			u.GID = strconv.Itoa(gid)
		case string:
			u.GID = gid
		}
		users = append(users, u)
	}
	return users, nil
}
