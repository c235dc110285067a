package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/silkmc/silk-installer/internal/launcher"
)

type fixture struct {
	manifestVersions []string
	loaderVersions   []string
	intermediary     []string
}

// newOptions spins up a meta server for the fixture and returns Options
// pointed at it with a fresh install directory.
func newOptions(t *testing.T, fix fixture) Options {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		var versions []map[string]string
		for _, v := range fix.manifestVersions {
			versions = append(versions, map[string]string{"id": v, "type": "release"})
		}
		json.NewEncoder(w).Encode(map[string]any{"versions": versions})
	})
	mux.HandleFunc("/versions/loader", func(w http.ResponseWriter, r *http.Request) {
		var entries []map[string]string
		for _, v := range fix.loaderVersions {
			entries = append(entries, map[string]string{"version": v})
		}
		json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/versions/intermediary", func(w http.ResponseWriter, r *http.Request) {
		var entries []map[string]string
		for _, v := range fix.intermediary {
			entries = append(entries, map[string]string{"version": v, "maven": "net.silkmc:intermediary:" + v})
		}
		json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/versions/loader/", func(w http.ResponseWriter, r *http.Request) {
		// Launch json for any (game, loader) pair.
		fmt.Fprintf(w, `{"id":%q}`, r.URL.Path)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return Options{
		GameVersion: "1.19.2",
		InstallDir:  t.TempDir(),
		ManifestURL: srv.URL + "/manifest.json",
		MetaURL:     srv.URL,
	}
}

func defaultFixture() fixture {
	return fixture{
		manifestVersions: []string{"1.19.2", "1.19.1", "1.18.2"},
		loaderVersions:   []string{"0.17.0", "0.16.9"},
		intermediary:     []string{"1.19.2", "1.19.1"},
	}
}

// requireNoWrites asserts the install directory is untouched.
func requireNoWrites(t *testing.T, installDir string) {
	t.Helper()
	entries, err := os.ReadDir(installDir)
	if err != nil {
		t.Fatalf("reading install dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("install dir should be untouched, found %v", entries)
	}
}

func TestResolveSelectsNewestLoader(t *testing.T) {
	opts := newOptions(t, defaultFixture())

	plan, err := Resolve(context.Background(), opts)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if plan.GameVersion != "1.19.2" || plan.LoaderVersion != "0.17.0" {
		t.Fatalf("plan=%+v, want {1.19.2 0.17.0}", plan)
	}
}

func TestResolveExplicitLoader(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	opts.LoaderVersion = "0.16.9"

	plan, err := Resolve(context.Background(), opts)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if plan.LoaderVersion != "0.16.9" {
		t.Fatalf("LoaderVersion=%q, want 0.16.9", plan.LoaderVersion)
	}
}

func TestRunUnknownGameVersion(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	opts.GameVersion = "1.4.7"

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrUnknownGameVersion) {
		t.Fatalf("err=%v, want ErrUnknownGameVersion", err)
	}
	requireNoWrites(t, opts.InstallDir)
}

func TestRunMissingIntermediary(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	// 1.18.2 is in the manifest but has no intermediary entry.
	opts.GameVersion = "1.18.2"

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrMissingIntermediary) {
		t.Fatalf("err=%v, want ErrMissingIntermediary", err)
	}
	requireNoWrites(t, opts.InstallDir)
}

func TestRunUnknownLoaderVersion(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	opts.LoaderVersion = "9.9.9"

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrUnknownLoaderVersion) {
		t.Fatalf("err=%v, want ErrUnknownLoaderVersion", err)
	}
	requireNoWrites(t, opts.InstallDir)
}

func TestRunNoLoaderVersions(t *testing.T) {
	fix := defaultFixture()
	fix.loaderVersions = nil
	opts := newOptions(t, fix)

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrNoLoaderVersions) {
		t.Fatalf("err=%v, want ErrNoLoaderVersions", err)
	}
	requireNoWrites(t, opts.InstallDir)
}

func TestRunCreatesProfileFiles(t *testing.T) {
	opts := newOptions(t, defaultFixture())

	var statuses []string
	opts.Status = func(msg string) { statuses = append(statuses, msg) }

	plan, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if plan.LoaderVersion != "0.17.0" {
		t.Fatalf("LoaderVersion=%q, want 0.17.0", plan.LoaderVersion)
	}

	profileDir := filepath.Join(opts.InstallDir, "versions", "silk-loader-0.17.0-1.19.2")

	jsonData, err := os.ReadFile(filepath.Join(profileDir, "silk-loader-0.17.0-1.19.2.json"))
	if err != nil {
		t.Fatalf("launch json missing: %v", err)
	}
	if len(jsonData) == 0 {
		t.Fatal("launch json is empty")
	}

	jarInfo, err := os.Stat(filepath.Join(profileDir, "silk-loader-0.17.0-1.19.2.jar"))
	if err != nil {
		t.Fatalf("placeholder jar missing: %v", err)
	}
	if jarInfo.Size() != 0 {
		t.Fatalf("placeholder jar size=%d, want 0", jarInfo.Size())
	}

	// GenerateProfile is false, so the launcher registry is never touched.
	if _, err := os.Stat(filepath.Join(opts.InstallDir, launcher.ProfilesFile)); !os.IsNotExist(err) {
		t.Fatalf("launcher_profiles.json should not exist, stat err=%v", err)
	}

	if len(statuses) == 0 || statuses[len(statuses)-1] != "Completed installation" {
		t.Fatalf("statuses=%v, want Completed installation last", statuses)
	}
}

func TestRunRefusesToClobberLaunchJSON(t *testing.T) {
	opts := newOptions(t, defaultFixture())

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrProfileExists) {
		t.Fatalf("second Run err=%v, want ErrProfileExists", err)
	}
}

func TestRunToleratesExistingPlaceholderJar(t *testing.T) {
	opts := newOptions(t, defaultFixture())

	profileDir := filepath.Join(opts.InstallDir, "versions", "silk-loader-0.17.0-1.19.2")
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(profileDir, "silk-loader-0.17.0-1.19.2.jar"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run should tolerate a pre-existing placeholder jar: %v", err)
	}
}

func TestRunRegistersLauncherProfile(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	opts.GenerateProfile = true

	registry, _ := json.Marshal(map[string]any{"profiles": map[string]any{}})
	if err := os.WriteFile(filepath.Join(opts.InstallDir, launcher.ProfilesFile), registry, 0o644); err != nil {
		t.Fatalf("writing registry fixture: %v", err)
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(opts.InstallDir, launcher.ProfilesFile))
	if err != nil {
		t.Fatalf("reading registry: %v", err)
	}
	var doc struct {
		Profiles map[string]launcher.Profile `json:"profiles"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing registry: %v", err)
	}
	entry, ok := doc.Profiles["silk-loader-0.17.0-1.19.2"]
	if !ok {
		t.Fatalf("registry entry missing: %v", doc.Profiles)
	}
	if entry.LastVersionID != "silk-loader-0.17.0-1.19.2" {
		t.Fatalf("lastVersionId=%q, want the profile name", entry.LastVersionID)
	}
}

func TestRunRegistryFailureAfterDescriptorWrite(t *testing.T) {
	opts := newOptions(t, defaultFixture())
	opts.GenerateProfile = true
	// No launcher_profiles.json in the install dir.

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrRegistryUpdate) {
		t.Fatalf("err=%v, want ErrRegistryUpdate", err)
	}

	// The descriptor must already be durably written; only the registration
	// is missing, and re-registering is the user's recovery path.
	jsonPath := filepath.Join(opts.InstallDir, "versions", "silk-loader-0.17.0-1.19.2", "silk-loader-0.17.0-1.19.2.json")
	if _, err := os.Stat(jsonPath); err != nil {
		t.Fatalf("launch json should exist despite registry failure: %v", err)
	}
}

func TestSelectLoaderVersion(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		requested string
		want      string
		wantErr   error
	}{
		{
			name:      "latest picks first element",
			available: []string{"0.17.0", "0.16.9"},
			want:      "0.17.0",
		},
		{
			name:      "explicit version found",
			available: []string{"0.17.0", "0.16.9"},
			requested: "0.16.9",
			want:      "0.16.9",
		},
		{
			name:      "explicit version missing",
			available: []string{"0.17.0"},
			requested: "0.15.0",
			wantErr:   ErrUnknownLoaderVersion,
		},
		{
			name:    "empty catalog",
			wantErr: ErrNoLoaderVersions,
		},
		{
			name:      "empty catalog with explicit version",
			requested: "0.17.0",
			wantErr:   ErrUnknownLoaderVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectLoaderVersion(tt.available, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectLoaderVersion failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("selectLoaderVersion=%q, want %q", got, tt.want)
			}
		})
	}
}
