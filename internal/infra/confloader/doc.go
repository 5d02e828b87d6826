// Package confloader loads LedgerMesh configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Overrides (server --set key=value flags)
//  2. LEDGERMESH_ environment variables, "__" between levels
//  3. The YAML configuration file
//  4. Defaults already held by the target struct
//
// Watcher reports changes to the configuration file through fsnotify so the
// server can apply settings that are safe to change at runtime.
package confloader
