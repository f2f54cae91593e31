package domain

// LoadingStatus tracks a game's dataset through its load lifecycle.
type LoadingStatus string

const (
	StatusPending LoadingStatus = "pending"
	StatusLoading LoadingStatus = "loading"
	StatusLoaded  LoadingStatus = "loaded"
	StatusError   LoadingStatus = "error"
)

// Site describes where a game's dataset lives.
type Site struct {
	GameCode      string `json:"gameCode"`
	GameTitle     string `json:"gameTitle"`
	Color         string `json:"color,omitempty"`
	DataSourceURL string `json:"dataSourceUrl"`
}
