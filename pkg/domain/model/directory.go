package model

// ChannelDirectoryEntry is an immutable snapshot of one workspace's conversations.
// Channel names, user names, real names and display names share one key space.
// Every ID in the group or direct set maps to itself, and the two sets are disjoint.
type ChannelDirectoryEntry struct {
	nameToID  map[string]string
	groupIDs  map[string]struct{}
	directIDs map[string]struct{}
}

// EmptyDirectoryEntry is the entry of a freshly installed workspace.
func EmptyDirectoryEntry() *ChannelDirectoryEntry {
	return NewDirectoryBuilder().Build()
}

// Lookup resolves a name or ID.
func (e *ChannelDirectoryEntry) Lookup(nameOrID string) (string, bool) {
	id, ok := e.nameToID[nameOrID]
	return id, ok
}

// IsGroup reports whether id is a known multi-party conversation.
func (e *ChannelDirectoryEntry) IsGroup(id string) bool {
	_, ok := e.groupIDs[id]
	return ok
}

// IsDirect reports whether id is a known one-to-one conversation.
func (e *ChannelDirectoryEntry) IsDirect(id string) bool {
	_, ok := e.directIDs[id]
	return ok
}

// Size returns the number of keys, group IDs and direct IDs.
func (e *ChannelDirectoryEntry) Size() (keys, groups, directs int) {
	return len(e.nameToID), len(e.groupIDs), len(e.directIDs)
}

// DirectoryBuilder assembles a ChannelDirectoryEntry during a refresh.
type DirectoryBuilder struct {
	entry *ChannelDirectoryEntry
}

func NewDirectoryBuilder() *DirectoryBuilder {
	return &DirectoryBuilder{
		entry: &ChannelDirectoryEntry{
			nameToID:  make(map[string]string),
			groupIDs:  make(map[string]struct{}),
			directIDs: make(map[string]struct{}),
		},
	}
}

// AddGroupChannel records a multi-party conversation and its name.
func (b *DirectoryBuilder) AddGroupChannel(id, name string) *DirectoryBuilder {
	delete(b.entry.directIDs, id)
	b.entry.groupIDs[id] = struct{}{}
	b.alias(name, id)
	return b
}

// AddDirectChannel records a one-to-one conversation. Aliases are the peer's
// user name, real name and display name; empty aliases are skipped.
func (b *DirectoryBuilder) AddDirectChannel(id string, aliases ...string) *DirectoryBuilder {
	delete(b.entry.groupIDs, id)
	b.entry.directIDs[id] = struct{}{}
	for _, a := range aliases {
		b.alias(a, id)
	}
	return b
}

func (b *DirectoryBuilder) alias(name, id string) {
	if name == "" {
		return
	}
	b.entry.nameToID[name] = id
}

// Build finalizes the entry. IDs are written last so no alias can shadow an ID key.
func (b *DirectoryBuilder) Build() *ChannelDirectoryEntry {
	e := b.entry
	for id := range e.groupIDs {
		e.nameToID[id] = id
	}
	for id := range e.directIDs {
		e.nameToID[id] = id
	}
	b.entry = nil
	return e
}
