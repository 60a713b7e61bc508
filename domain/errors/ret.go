package errors

// The Application return code errors
const (
	RetLayerFilesystemError    = 9
	RetLoadConfigError         = 10
	RetCreateDatabaseError     = 11
	RetMigrateDatabaseError    = 12
	RetCreateHistoryRepository = 13
	RetCreateTempFolderError   = 14
	RetCreateInboxWatcherError = 17
	RetStartupSweepError       = 20
	RetCreateWebServerError    = 40
)
