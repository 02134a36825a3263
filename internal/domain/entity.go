package domain

type EntityType string

const (
	EntityNone      EntityType = ""
	EntityCrop      EntityType = "crop"
	EntityTimeframe EntityType = "timeframe"
	EntityMarket    EntityType = "market"
)

func (e EntityType) String() string {
	return string(e)
}

// Resolution is the per-turn entity view produced by the context manager.
// Empty strings mean the entity is unresolved.
type Resolution struct {
	Crop        string       `json:"crop,omitempty"`
	Timeframe   string       `json:"timeframe,omitempty"`
	Market      string       `json:"market,omitempty"`
	Mentioned   []EntityType `json:"mentioned,omitempty"` // named explicitly in this message
	IsFollowUp  bool         `json:"isFollowUp"`
	FromContext bool         `json:"fromContext"`
}

func (r Resolution) HasMention() bool {
	return len(r.Mentioned) > 0
}
