package cache

// ChangeSummary records the net entity count deltas produced by one store
// operation. Deltas are signed: an overwrite of an existing entity
// contributes zero, a delete contributes a negative count. Summaries are
// additive so fan-out operations can merge the results of their parts.
type ChangeSummary struct {
	Guilds            int64
	UnavailableGuilds int64
	Channels          int64
	Members           int64
	Roles             int64
	Users             int64
}

// Merge folds another summary into this one.
func (s *ChangeSummary) Merge(other ChangeSummary) {
	s.Guilds += other.Guilds
	s.UnavailableGuilds += other.UnavailableGuilds
	s.Channels += other.Channels
	s.Members += other.Members
	s.Roles += other.Roles
	s.Users += other.Users
}

// IsZero reports whether the operation changed nothing.
func (s ChangeSummary) IsZero() bool {
	return s == ChangeSummary{}
}
