package flashfs

// Config holds the two tunables the host's configuration store persists
// (§6). The core never reads or writes configuration storage itself; a
// Config is handed to New by the host.
type Config struct {
	// ArmingEraseFreeSpace is the minimum free space, in bytes, the
	// background erase controller must maintain ahead of tail.
	ArmingEraseFreeSpace uint32
	// BackgroundErase selects background mode (true: erase opportunistically
	// between writes) versus arming-time mode (false: batch every erase
	// needed to reach the threshold into one pass before writes start).
	BackgroundErase bool
}

// DefaultConfig matches original_source/src/main/pg/flashfs.c's
// PG_RESET_TEMPLATE defaults.
func DefaultConfig() Config {
	return Config{
		ArmingEraseFreeSpace: 2 * 1024 * 1024,
		BackgroundErase:      true,
	}
}

// ConfigStore is the consumed configuration-persistence interface (§6).
// A JSON-file-backed implementation is provided in the config
// subpackage for hosts with a filesystem; a bare-metal host would back
// this with its own EEPROM/settings-page driver instead.
type ConfigStore interface {
	Load() (Config, error)
	Save(Config) error
}
