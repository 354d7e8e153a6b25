package fixapp

import (
	"fmt"
	"os"

	"github.com/quickfixgo/quickfix"
)

// NewInitiator wires the app into a socket initiator using the engine's
// own settings file for transport concerns (addresses, heartbeats,
// logon).
func NewInitiator(app *App, settingsPath string) (*quickfix.Initiator, error) {
	f, err := os.Open(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("open engine settings: %w", err)
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return nil, fmt.Errorf("parse engine settings: %w", err)
	}

	return quickfix.NewInitiator(app, app.StoreFactory(), settings, quickfix.NewScreenLogFactory())
}
