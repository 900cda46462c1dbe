package constants

const (
	// Environment overrides
	EnvAPIURL       = "CMUCAL_API_URL"
	EnvUserID       = "CMUCAL_USER_ID"
	EnvDBConnection = "CMUCAL_DB_CONNECTION"
	EnvConfigPath   = "CMUCAL_CONFIG"

	// Default configuration values
	DefaultRefreshCron = "*/15 * * * *"
	DefaultHorizonDays = 30
	DefaultLogMaxSize  = 10 // megabytes
	DefaultLogBackups  = 3
	DefaultLogMaxAge   = 28 // days
)
