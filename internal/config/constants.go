package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./santos.db"

	// DefaultTasksDatabasePath is the default path for the background task queue database
	DefaultTasksDatabasePath = "./santos-tasks.db"
)

// DefaultMaintainerEmail is promoted by the make-admin endpoint when no email is given.
const DefaultMaintainerEmail = "mateusbragasan@gmail.com"
