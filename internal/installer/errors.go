package installer

import "errors"

// Every way an install can fail, as matchable variants. Call sites wrap these
// with %w so errors.Is works through the added context.
var (
	ErrUnknownGameVersion   = errors.New("game version does not exist")
	ErrMissingIntermediary  = errors.New("game version has no intermediary mappings")
	ErrUnknownLoaderVersion = errors.New("loader version was not found")
	ErrNoLoaderVersions     = errors.New("no loader versions are available")
	ErrFilesystem           = errors.New("filesystem error")
	ErrProfileExists        = errors.New("profile is already installed")
	ErrRegistryUpdate       = errors.New("launcher profile registry update failed")
)
