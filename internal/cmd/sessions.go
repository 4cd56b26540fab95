package cmd

// SessionsCmd manages sessions
type SessionsCmd struct {
	Close SessionsCloseCmd `cmd:"close" help:"Abandon a session"`
	List  SessionsListCmd  `cmd:"list" help:"List sessions" default:"1"`
	View  SessionsViewCmd  `cmd:"view" help:"View a specific session"`
}
