// Package config resolves kbcontext settings.
//
// Values are layered: built-in defaults, then an optional TOML file
// (~/.kbcontext/config.toml unless a path is given), then .env files, then
// environment variables. Example file:
//
//	db_path = "/var/lib/kbcontext/kb.db"
//	log_level = "debug"
//
//	[embedding]
//	provider = "openai"
//	model = "text-embedding-3-small"
//	dimension = 1536
//	requests_per_second = 5
//	burst = 10
//
//	[chunking]
//	chunk_size = 3000
//	overlap = 300
//
//	[ingest]
//	chunk_workers = 4
package config
