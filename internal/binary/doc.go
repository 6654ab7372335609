// Package binary provisions version-pinned toolchain binaries: it resolves a
// download URL for the target platform, fetches the release archive, unpacks
// it, locates the executables inside and marks them executable.
//
// # Components
//
//   - Descriptor: immutable definition of one release artifact (name, pinned
//     version, URL generator, archive layout, binaries it provides)
//   - Template: literal {placeholder} substitution for per-tool URL templates
//   - Fetcher: HTTPFetcher (in-process) and CommandFetcher (curl)
//   - Unpacker: Extractor (in-process gzip-tar/zip, flat or first-component
//     stripped) and CommandExtractor (tar / PowerShell Expand-Archive)
//   - Finder: KnownLayout and Search strategies for locating executables
//   - Manager: is-installed / install / uninstall lifecycle per (tool, version)
//
// # Install state
//
// There is no manifest. A toolchain version is installed if and only if every
// binary its descriptors declare resolves on disk; status is re-derived on
// every call.
//
// # Concurrency
//
// Installs of the same (tool, version) are serialised by a keyed mutex within
// the process and a lock file across processes. The version directory is
// built in a uniquely named staging directory and renamed into place, so a
// reader never observes a half-extracted root.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    DataDir:    dataDir,
//	    Target:     target,
//	    Toolchains: runtimes.Default(templates),
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := mgr.Install(ctx, "python", "3.12.12")
package binary
