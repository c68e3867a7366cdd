package domain

// Settings is the persisted preferences document. Favorites hold model
// identifiers, bare for local models and "source:id" for marketplace models.
type Settings struct {
	Theme             string   `json:"theme"`
	DefaultModel      string   `json:"default_model,omitempty"`
	DefaultVideoModel string   `json:"default_video_model,omitempty"`
	AutoSaveHistory   bool     `json:"auto_save_history"`
	MaxLogEntries     int      `json:"max_log_entries"`
	Favorites         []string `json:"favorites"`
}

// DefaultSettings returns the document used before anything was persisted.
func DefaultSettings() Settings {
	return Settings{
		Theme:           "dark",
		AutoSaveHistory: true,
		MaxLogEntries:   1000,
		Favorites:       []string{},
	}
}

// Clone returns a deep copy so optimistic snapshots cannot alias the live set.
func (s Settings) Clone() Settings {
	out := s
	out.Favorites = append([]string(nil), s.Favorites...)
	return out
}
