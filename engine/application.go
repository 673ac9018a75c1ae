package engine

type ApplicationConfig struct {
	// The application name, handed to the backend and used as device name.
	Name string
	// TOML configuration file. Empty runs with core.DefaultConfig.
	ConfigPath string
	// Reload ConfigPath when it changes on disk.
	WatchConfig bool
	// Stop after this many frames, 0 runs until Stop is called.
	MaxFrames uint64
	// Frame rate cap, 0 disables it.
	TargetFPS uint32
}
