package policy

// ResolveAdminSet normalizes a team's two admin representations into one set
// of identifiers. The adminIDs list is the current model; legacyAdminID is the
// single-admin field still present on older rows. Entries may be user IDs or
// email addresses. The legacy field only counts when the list is empty, so the
// dual-shape shim stays confined to this one function.
func ResolveAdminSet(adminIDs []string, legacyAdminID string) []string {
	if len(adminIDs) > 0 {
		seen := make(map[string]bool, len(adminIDs))
		set := make([]string, 0, len(adminIDs))
		for _, id := range adminIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			set = append(set, id)
		}
		if len(set) > 0 {
			return set
		}
	}
	if legacyAdminID != "" {
		return []string{legacyAdminID}
	}
	return nil
}

// IsTeamAdmin reports whether the user identified by userID or userEmail is a
// member of the resolved admin set. Both identifiers are tested because some
// admin entries were historically stored as email strings.
func IsTeamAdmin(adminSet []string, userID, userEmail string) bool {
	for _, entry := range adminSet {
		if userID != "" && entry == userID {
			return true
		}
		if userEmail != "" && entry == userEmail {
			return true
		}
	}
	return false
}

// IsSoleAdmin reports whether the user is the only member of the admin set.
func IsSoleAdmin(adminSet []string, userID, userEmail string) bool {
	return len(adminSet) == 1 && IsTeamAdmin(adminSet, userID, userEmail)
}

// TeamAdminShape carries the raw admin fields of one team for the sole-admin
// scan, so callers don't need the full team record.
type TeamAdminShape struct {
	AdminIDs      []string
	LegacyAdminID string
}

// IsSoleAdminOfAnyTeam reports whether the user is the only admin of at least
// one of the given teams. Account deletion is refused while this holds, to
// prevent orphaning a team with zero admins.
func IsSoleAdminOfAnyTeam(teams []TeamAdminShape, userID, userEmail string) bool {
	for _, t := range teams {
		set := ResolveAdminSet(t.AdminIDs, t.LegacyAdminID)
		if IsSoleAdmin(set, userID, userEmail) {
			return true
		}
	}
	return false
}
