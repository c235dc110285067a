package launchjson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// LoaderArtifactName is the version-independent prefix used when deriving a
// profile name.
const LoaderArtifactName = "silk-loader"

var HTTPClient = http.DefaultClient

// ProfileName derives the launcher profile name for a loader/game version
// pair. It doubles as the profile directory name and the file stem for the
// launch json and the placeholder jar.
func ProfileName(loaderVersion, gameVersion string) string {
	return fmt.Sprintf("%s-%s-%s", LoaderArtifactName, loaderVersion, gameVersion)
}

// Fetch retrieves the launch profile json for the given game and loader
// version from the meta service rooted at baseURL. The document is returned
// verbatim; the meta service already embeds the profile id and library list.
func Fetch(ctx context.Context, baseURL, gameVersion, loaderVersion string) (string, error) {
	profileURL := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json",
		baseURL, url.PathEscape(gameVersion), url.PathEscape(loaderVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching launch json: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching launch json from %s: HTTP %d", profileURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading launch json: %w", err)
	}

	return string(data), nil
}
