package launcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const ProfilesFile = "launcher_profiles.json"

// Profile is a single entry in the launcher's profile registry.
type Profile struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Created       string `json:"created"`
	LastUsed      string `json:"lastUsed"`
	LastVersionID string `json:"lastVersionId"`
	Icon          string `json:"icon,omitempty"`
}

var now = time.Now

// UpdateProfiles inserts (or replaces) a profile entry in the launcher's
// launcher_profiles.json under installDir, leaving every other key in the
// document untouched. The registry document is owned by the launcher, so a
// missing file is an error rather than a reason to create one.
func UpdateProfiles(installDir, profileName, gameVersion string) error {
	path := filepath.Join(installDir, ProfilesFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no %s found in %s - run the launcher once first", ProfilesFile, installDir)
		}
		return fmt.Errorf("reading %s: %w", ProfilesFile, err)
	}

	// Decode to raw messages so launcher-owned keys and foreign profiles
	// survive the rewrite byte for byte.
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", ProfilesFile, err)
	}

	profiles := make(map[string]json.RawMessage)
	if raw, ok := doc["profiles"]; ok {
		if err := json.Unmarshal(raw, &profiles); err != nil {
			return fmt.Errorf("parsing profiles in %s: %w", ProfilesFile, err)
		}
	}

	// lastVersionId must match the versions/<profileName> directory so the
	// launcher can find the launch json; the game version only feeds the
	// human-readable name.
	stamp := now().UTC().Format(time.RFC3339)
	entry, err := json.Marshal(Profile{
		Name:          "Silk Loader " + gameVersion,
		Type:          "custom",
		Created:       stamp,
		LastUsed:      stamp,
		LastVersionID: profileName,
		Icon:          "Furnace",
	})
	if err != nil {
		return fmt.Errorf("marshaling profile entry: %w", err)
	}
	profiles[profileName] = entry

	rawProfiles, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	doc["profiles"] = rawProfiles

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", ProfilesFile, err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", ProfilesFile, err)
	}

	return nil
}
