package core

import "strings"

// GetActionType returns the action kind name, or "nil" for a missing action.
func GetActionType(action Action) string {
	if action == nil {
		return "nil"
	}
	return action.Kind().String()
}

// JoinTiles formats tile ids as a comma separated list of square names.
func JoinTiles(ids []TileID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ",")
}
