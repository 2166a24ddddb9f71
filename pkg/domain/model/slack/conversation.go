package slack

// Conversation is one entry of a workspace's conversation listing.
type Conversation struct {
	ID   string
	Name string
	// IsIM is true for one-to-one conversations; PeerUserID is then the other member.
	IsIM       bool
	PeerUserID string
}

// User is the profile subset used for directory aliases and event enrichment.
type User struct {
	ID          string
	Name        string
	RealName    string
	DisplayName string
	Email       string
}

// Aliases returns the non-empty names a user can be addressed by.
func (u *User) Aliases() []string {
	var aliases []string
	for _, a := range []string{u.Name, u.RealName, u.DisplayName} {
		if a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases
}

// PreferredName returns the display name, then the real name, then the user name.
func (u *User) PreferredName() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.RealName != "":
		return u.RealName
	default:
		return u.Name
	}
}

// BotIdentity is the result of authenticating a bot token.
type BotIdentity struct {
	TeamID    string
	TeamName  string
	BotUserID string
}
