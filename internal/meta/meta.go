package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

const (
	// DefaultManifestURL is Mojang's game version catalog.
	DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	// DefaultBaseURL is the Silk meta service root.
	DefaultBaseURL = "https://meta.silkmc.net/v3"
)

var HTTPClient = http.DefaultClient

// VersionManifest is the subset of the launcher version manifest we need.
type VersionManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

type ManifestVersion struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// HasVersion reports whether the manifest lists the given game version.
func (m *VersionManifest) HasVersion(id string) bool {
	for _, v := range m.Versions {
		if v.ID == id {
			return true
		}
	}
	return false
}

// FetchManifest downloads and parses the game version manifest.
func FetchManifest(ctx context.Context, manifestURL string) (*VersionManifest, error) {
	var m VersionManifest
	if err := fetchJSON(ctx, manifestURL, &m); err != nil {
		return nil, fmt.Errorf("version manifest: %w", err)
	}
	return &m, nil
}

// Snapshot is a point-in-time view of the meta service endpoints needed for
// an install. It is never mutated after FetchSnapshot returns.
type Snapshot struct {
	// LoaderVersions is ordered newest first, as served by the meta service.
	LoaderVersions []string
	// Intermediary maps a game version to its intermediary maven coordinate.
	Intermediary map[string]string
}

type loaderEntry struct {
	Version string `json:"version"`
	Maven   string `json:"maven"`
}

type intermediaryEntry struct {
	Version string `json:"version"`
	Maven   string `json:"maven"`
}

// FetchSnapshot fetches the loader-versions and intermediary endpoints from
// the meta service rooted at baseURL. Both endpoints are fetched concurrently.
func FetchSnapshot(ctx context.Context, baseURL string) (*Snapshot, error) {
	var (
		wg sync.WaitGroup

		loader    []loaderEntry
		loaderErr error

		inter    []intermediaryEntry
		interErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		loaderErr = fetchJSON(ctx, baseURL+"/versions/loader", &loader)
	}()
	go func() {
		defer wg.Done()
		interErr = fetchJSON(ctx, baseURL+"/versions/intermediary", &inter)
	}()
	wg.Wait()

	if loaderErr != nil {
		return nil, fmt.Errorf("loader versions: %w", loaderErr)
	}
	if interErr != nil {
		return nil, fmt.Errorf("intermediary versions: %w", interErr)
	}

	snap := &Snapshot{
		LoaderVersions: make([]string, 0, len(loader)),
		Intermediary:   make(map[string]string, len(inter)),
	}
	for _, e := range loader {
		snap.LoaderVersions = append(snap.LoaderVersions, e.Version)
	}
	for _, e := range inter {
		snap.Intermediary[e.Version] = e.Maven
	}
	return snap, nil
}

func fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s: %w", url, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", url, err)
	}
	return nil
}
