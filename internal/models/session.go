package models

// Session is the process-local authentication state of a client.
type Session struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"is_authenticated"`
	IsLoading       bool  `json:"is_loading"`
}
