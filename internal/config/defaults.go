package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bloemist/data/db/catalog.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/bloemist/data/indices/bleve"
	}
	if cfg.Catalog.Extensions == nil {
		cfg.Catalog.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Catalog.Directories) > 0 && cfg.Catalog.Recursive == nil {
		t := true
		cfg.Catalog.Recursive = &t
	}
	if cfg.Highlight.Format == "" {
		cfg.Highlight.Format = "html"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.NameBoost == 0 {
		cfg.Search.NameBoost = 3.0
	}
}
