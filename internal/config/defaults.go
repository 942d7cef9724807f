package config

const (
	defaultBind              = "127.0.0.1:8300"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultRequestsPerSecond = 4.0
	defaultDatabasePath      = "~/.local/share/marquee/catalog.db"
	defaultLogDir            = "~/.local/share/marquee/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultSweepInterval     = 60
	defaultBackfillDepth     = 256
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind: defaultBind,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		Cache: Cache{
			Enabled:       true,
			SweepInterval: defaultSweepInterval,
			BackfillDepth: defaultBackfillDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
