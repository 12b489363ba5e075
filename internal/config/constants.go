package config

const (
	// DefaultDatabasePath is the default path of the content store
	// database.
	DefaultDatabasePath = "./archivist.db"

	// DefaultArchiveDir is the default location of an unpacked archive
	// export (tweets.js, account.js, tweets_media/).
	DefaultArchiveDir = "./twitter-archive"

	// DefaultMediaBaseURL prefixes attached media filenames in generated
	// image tags.
	DefaultMediaBaseURL = "/media/tweets_media"
)
