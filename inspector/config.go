package inspector

// Config controls which definitions the inspector extracts
type Config struct {
	IncludeConstants bool // extract underscore-prefixed assignments
	HashContent      bool // compute a content hash per definition
}

func DefaultConfig() *Config {
	return &Config{
		IncludeConstants: true,
	}
}
