package ledger

import (
	"sort"

	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/tagset"
)

// Resolve expands the positional quick text and any selected alias into in.
// Explicitly supplied fields win over alias defaults; alias tags are added and
// then the untag list is removed. An alias key that is not defined is ignored.
func Resolve(in Input, aliases map[string]model.Alias) Input {
	out := in
	out.Tags = append([]string(nil), in.Tags...)

	if in.QuickText != nil {
		if _, ok := aliases[*in.QuickText]; ok {
			key := *in.QuickText
			out.Alias = &key
		} else if in.Description == nil {
			text := *in.QuickText
			out.Description = &text
		}
	}

	if out.Alias == nil {
		return out
	}
	alias, ok := aliases[*out.Alias]
	if !ok {
		return out
	}

	if out.Description == nil && alias.Description != nil {
		v := *alias.Description
		out.Description = &v
	}
	if out.Detail == nil && alias.Detail != nil {
		v := *alias.Detail
		out.Detail = &v
	}
	if out.StructuredData == nil && alias.StructuredData != nil {
		v := string(alias.StructuredData)
		out.StructuredData = &v
	}
	out.Tags = tagset.Subtract(tagset.Union(out.Tags, alias.Tags), in.Untag)
	return out
}

// MatchAlias picks the alias whose tags overlap tags the most. Ties go to the
// lexicographically smallest key. ok is false only when there are no aliases.
func MatchAlias(aliases map[string]model.Alias, tags []string) (key string, alias model.Alias, ok bool) {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := -1
	for _, k := range keys {
		n := len(tagset.Intersect(aliases[k].Tags, tags))
		if n > best {
			best = n
			key = k
		}
	}
	if best < 0 {
		return "", model.Alias{}, false
	}
	return key, aliases[key], true
}

// SetAlias creates, replaces or (for an empty input) deletes the alias key.
func (m *Machine) SetAlias(key string, in AliasInput) model.Images[model.Alias] {
	images := model.Images[model.Alias]{
		OldImage: map[string]*model.Alias{key: nil},
		NewImage: map[string]*model.Alias{key: nil},
	}
	if old, ok := m.doc.Aliases[key]; ok {
		images.OldImage[key] = &old
	}

	if in.empty() {
		delete(m.doc.Aliases, key)
		m.logger.Debug("alias deleted", "alias", key)
		return images
	}

	alias := model.Alias{
		Description: in.Description,
		Detail:      in.Detail,
	}
	if in.StructuredData != nil {
		alias.StructuredData = []byte(*in.StructuredData)
	}
	if len(in.Tags) > 0 {
		alias.Tags = tagset.Normalize(in.Tags)
	}
	if m.doc.Aliases == nil {
		m.doc.Aliases = map[string]model.Alias{}
	}
	m.doc.Aliases[key] = alias
	images.NewImage[key] = &alias
	m.logger.Debug("alias stored", "alias", key)
	return images
}
