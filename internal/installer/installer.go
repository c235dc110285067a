package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/silkmc/silk-installer/internal/launcher"
	"github.com/silkmc/silk-installer/internal/launchjson"
	"github.com/silkmc/silk-installer/internal/meta"
)

type Options struct {
	GameVersion string
	// LoaderVersion empty selects the newest available loader.
	LoaderVersion   string
	GenerateProfile bool
	InstallDir      string

	// ManifestURL and MetaURL default to the public services when empty.
	ManifestURL string
	MetaURL     string

	// Status receives progress messages. Not part of the success/failure
	// contract; may be nil.
	Status func(msg string)
}

// Plan is a fully validated install target. Both fields have been checked
// against remote metadata before a Plan is constructed.
type Plan struct {
	GameVersion   string
	LoaderVersion string
}

// Run resolves the requested versions and, once every validation has passed,
// materializes the profile under the installation directory. No filesystem
// side effect happens before resolution succeeds.
func Run(ctx context.Context, opts Options) (*Plan, error) {
	opts = withDefaults(opts)
	if opts.InstallDir == "" {
		return nil, fmt.Errorf("installation directory not set")
	}

	plan, err := Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := Materialize(ctx, opts, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// Resolve runs the three validations: game version existence, intermediary
// presence, and loader version selection. The manifest lookup and the meta
// snapshot fetch run concurrently; the two snapshot-derived checks wait for
// the snapshot and then run concurrently with the manifest check. All three
// are joined before any result is produced.
func Resolve(ctx context.Context, opts Options) (*Plan, error) {
	opts = withDefaults(opts)

	var (
		snap      *meta.Snapshot
		snapErr   error
		snapReady = make(chan struct{})
	)
	go func() {
		snap, snapErr = meta.FetchSnapshot(ctx, opts.MetaURL)
		close(snapReady)
	}()

	// Results land in fixed slots and are inspected in slot order after the
	// join, so concurrent failures always resolve to the same winner.
	var (
		wg            sync.WaitGroup
		errs          [3]error
		loaderVersion string
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		m, err := meta.FetchManifest(ctx, opts.ManifestURL)
		if err != nil {
			errs[0] = err
			return
		}
		if !m.HasVersion(opts.GameVersion) {
			errs[0] = fmt.Errorf("game version %s: %w", opts.GameVersion, ErrUnknownGameVersion)
		}
	}()
	go func() {
		defer wg.Done()
		<-snapReady
		if snapErr != nil {
			errs[1] = snapErr
			return
		}
		if _, ok := snap.Intermediary[opts.GameVersion]; !ok {
			errs[1] = fmt.Errorf("game version %s: %w", opts.GameVersion, ErrMissingIntermediary)
		}
	}()
	go func() {
		defer wg.Done()
		<-snapReady
		if snapErr != nil {
			errs[2] = snapErr
			return
		}
		loaderVersion, errs[2] = selectLoaderVersion(snap.LoaderVersions, opts.LoaderVersion)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &Plan{GameVersion: opts.GameVersion, LoaderVersion: loaderVersion}, nil
}

func selectLoaderVersion(available []string, requested string) (string, error) {
	if requested != "" {
		if !slices.Contains(available, requested) {
			return "", fmt.Errorf("loader version %s: %w", requested, ErrUnknownLoaderVersion)
		}
		return requested, nil
	}
	if len(available) == 0 {
		return "", ErrNoLoaderVersions
	}
	// The meta service serves versions newest first; no reordering here.
	return available[0], nil
}

// Materialize performs the sequential filesystem phase for an already
// resolved plan: launch json fetch, profile directory, placeholder jar,
// exclusive-create launch json, optional launcher profile registration.
// Each step is gated on the previous one.
func Materialize(ctx context.Context, opts Options, plan *Plan) error {
	opts = withDefaults(opts)
	status := opts.Status

	status("Fetching launch json")
	body, err := launchjson.Fetch(ctx, opts.MetaURL, plan.GameVersion, plan.LoaderVersion)
	if err != nil {
		return err
	}

	profileName := launchjson.ProfileName(plan.LoaderVersion, plan.GameVersion)
	profileDir := filepath.Join(opts.InstallDir, "versions", profileName)

	status("Creating profile directory")
	if err := os.MkdirAll(profileDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w: %w", profileDir, ErrFilesystem, err)
	}

	// The launcher refuses to show a version whose jar is missing, so an
	// empty pretender jar goes next to the launch json. Only its presence
	// matters; one left over from an earlier run is fine.
	status("Creating placeholder jar")
	jarPath := filepath.Join(profileDir, profileName+".jar")
	if err := createIgnoreExisting(jarPath); err != nil {
		return fmt.Errorf("creating %s: %w: %w", jarPath, ErrFilesystem, err)
	}

	status("Writing launch json")
	jsonPath := filepath.Join(profileDir, profileName+".json")
	if err := createExclusive(jsonPath, []byte(body)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", profileName, ErrProfileExists)
		}
		return fmt.Errorf("writing %s: %w: %w", jsonPath, ErrFilesystem, err)
	}

	if opts.GenerateProfile {
		status("Registering launcher profile")
		if err := launcher.UpdateProfiles(opts.InstallDir, profileName, plan.GameVersion); err != nil {
			// The launch json is already durably written; a failed
			// registration leaves a usable, re-registerable profile.
			return fmt.Errorf("%w: %w", ErrRegistryUpdate, err)
		}
	}

	status("Completed installation")
	return nil
}

// createIgnoreExisting creates an empty file, treating a pre-existing file
// as success.
func createIgnoreExisting(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return err
	}
	return f.Close()
}

// createExclusive writes data to a freshly created file and fails with
// fs.ErrExist if the file is already present.
func createExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func withDefaults(opts Options) Options {
	if opts.ManifestURL == "" {
		opts.ManifestURL = meta.DefaultManifestURL
	}
	if opts.MetaURL == "" {
		opts.MetaURL = meta.DefaultBaseURL
	}
	if opts.Status == nil {
		opts.Status = func(string) {}
	}
	return opts
}
