package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/farmlife/internal/app"
)

// ProviderSet builds an App from a loaded config.
var ProviderSet = wire.NewSet(
	app.NewLogger,
	app.NewBus,
	app.NewCatalog,
	app.NewWorld,
	app.NewTracker,
	app.NewServer,
	app.NewJournal,
	app.New,
)
