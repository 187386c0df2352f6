package settings

import "fmt"

// Merge reconciles target's schema against source (the Default provider) for
// scope. Schema fields (kind, tag, hidden) always come from source; stored
// values already present in target are kept; keys new to target receive the
// default value. Groups absent from source are wiped from target. When scopes
// is non-nil only keys owned by scope take part.
//
// Merge is a no-op for read-only targets.
func Merge(source, target Provider, scope Scope, scopes *ScopeMap) error {
	if source == nil || target == nil || target.ReadOnly() {
		return nil
	}

	groups, err := source.Groups()
	if err != nil {
		return fmt.Errorf("settings: merge list default groups: %w", err)
	}
	known := make(map[string]struct{}, len(groups))

	for _, group := range groups {
		known[group] = struct{}{}
		if err := mergeGroup(source, target, group, scope, scopes); err != nil {
			return err
		}
	}

	targetGroups, err := target.Groups()
	if err != nil {
		return fmt.Errorf("settings: merge list %s groups: %w", scope, err)
	}
	for _, group := range targetGroups {
		if _, ok := known[group]; ok {
			continue
		}
		if err := target.Write(group, nil); err != nil {
			return fmt.Errorf("settings: merge clear stale group %q in %s: %w", group, scope, err)
		}
	}

	return mergeGroupInfo(source, target, groups, scope)
}

func mergeGroup(source, target Provider, group string, scope Scope, scopes *ScopeMap) error {
	defaults, err := source.Read(group)
	if err != nil {
		return fmt.Errorf("settings: merge read default group %q: %w", group, err)
	}
	stored, err := target.Read(group)
	if err != nil {
		return fmt.Errorf("settings: merge read %s group %q: %w", scope, group, err)
	}
	existing := indexEntries(stored)

	result := make([]Entry, 0, len(defaults))
	for _, def := range defaults {
		if scopes != nil {
			owner, ok := scopes.Lookup(group, def.Key)
			if !ok || owner != scope {
				continue
			}
		}
		if current, ok := existing[def.Key]; ok {
			current.Group = group
			current.ValueKind = def.ValueKind
			current.Tag = def.Tag
			current.Hidden = def.Hidden
			result = append(result, current)
			continue
		}
		def.Group = group
		result = append(result, def)
	}

	if err := target.Write(group, result); err != nil {
		return fmt.Errorf("settings: merge write %s group %q: %w", scope, group, err)
	}
	return nil
}

func mergeGroupInfo(source, target Provider, groups []string, scope Scope) error {
	sourceInfo, ok := groupInfoProvider(source)
	if !ok {
		return nil
	}
	targetInfo, ok := groupInfoProvider(target)
	if !ok {
		return nil
	}

	defaults, err := sourceInfo.ReadGroupInfo()
	if err != nil {
		return fmt.Errorf("settings: merge read default group info: %w", err)
	}
	stored, err := targetInfo.ReadGroupInfo()
	if err != nil {
		return fmt.Errorf("settings: merge read %s group info: %w", scope, err)
	}
	defaultIndex := indexGroupInfo(defaults)
	storedIndex := indexGroupInfo(stored)

	merged := make([]GroupInfo, 0, len(groups))
	for _, group := range groups {
		if info, ok := storedIndex[group]; ok {
			merged = append(merged, info)
			continue
		}
		if info, ok := defaultIndex[group]; ok {
			merged = append(merged, info)
		}
	}

	if err := targetInfo.WriteGroupInfo(merged); err != nil {
		return fmt.Errorf("settings: merge write %s group info: %w", scope, err)
	}
	return nil
}
