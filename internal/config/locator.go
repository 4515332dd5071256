// Package config locates and reads/writes the toolchain's on-disk
// configuration: named identities, named networks and contract aliases,
// each stored as one TOML file per name under a local (".soroban") or
// global ("~/.config/soroban") directory.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/halide-labs/sorobanctl/internal/cli"
)

const (
	localDirName  = ".soroban"
	globalDirName = "soroban"

	identitiesSubdir = "identity"
	networksSubdir   = "network"
	aliasesSubdir    = "contract-ids"
)

// Locator resolves the directories and file paths for a toolchain
// configuration tree, optionally scoped to the user's global config
// instead of the current workspace.
type Locator struct {
	Global  bool
	Printer *cli.Printer
}

func (l Locator) printer() *cli.Printer {
	if l.Printer != nil {
		return l.Printer
	}
	return cli.NewPrinter(false)
}

// ConfigDir returns the root configuration directory, creating it if
// necessary: "<cwd>/.soroban" for the local scope, or
// "~/.config/soroban" for the global scope.
func (l Locator) ConfigDir() (string, error) {
	var dir string
	if l.Global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "config: resolving home directory")
		}
		dir = filepath.Join(home, ".config", globalDirName)
	} else {
		pwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "config: resolving working directory")
		}
		dir = filepath.Join(pwd, localDirName)
	}
	return ensureDir(dir)
}

func (l Locator) subdir(name string) (string, error) {
	root, err := l.ConfigDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(root, name))
}

func (l Locator) IdentityDir() (string, error) { return l.subdir(identitiesSubdir) }
func (l Locator) NetworkDir() (string, error)  { return l.subdir(networksSubdir) }
func (l Locator) AliasDir() (string, error)    { return l.subdir(aliasesSubdir) }

func tomlPath(dir, name string) string {
	return filepath.Join(dir, name+".toml")
}

func (l Locator) IdentityPath(name string) (string, error) {
	dir, err := l.IdentityDir()
	if err != nil {
		return "", err
	}
	return tomlPath(dir, name), nil
}

func (l Locator) NetworkPath(name string) (string, error) {
	dir, err := l.NetworkDir()
	if err != nil {
		return "", err
	}
	return tomlPath(dir, name), nil
}

func (l Locator) AliasPath(name string) (string, error) {
	dir, err := l.AliasDir()
	if err != nil {
		return "", err
	}
	return tomlPath(dir, name), nil
}

// opposite returns a Locator scoped to the other namespace, used to warn
// about a name that exists in both the local and global config trees.
func (l Locator) opposite() Locator {
	return Locator{Global: !l.Global, Printer: l.Printer}
}

// WriteIdentity marshals v (a keystore secret) as TOML under name.
func (l Locator) WriteIdentity(name string, v interface{}) error {
	path, err := l.IdentityPath(name)
	if err != nil {
		return err
	}
	if other, err := l.opposite().IdentityPath(name); err == nil {
		if _, statErr := os.Stat(other); statErr == nil {
			l.printer().Printf("Name collision!\n\n  Old identity: %s\n  New identity: %s\n\nWhen executing commands in this workspace, the local config will take precedence.", other, path)
		}
	}
	l.printer().Printf("Writing to %s", path)
	return writeTOML(path, v)
}

// WriteNetwork marshals n as TOML under name.
func (l Locator) WriteNetwork(name string, n Network) error {
	path, err := l.NetworkPath(name)
	if err != nil {
		return err
	}
	if other, err := l.opposite().NetworkPath(name); err == nil {
		if _, statErr := os.Stat(other); statErr == nil {
			l.printer().Printf("Name collision!\n\n  Old network: %s\n  New network: %s\n\nWhen executing commands in this workspace, the local config will take precedence.", other, path)
		}
	}
	l.printer().Printf("Writing to %s", path)
	return writeTOML(path, n)
}

// WriteAlias marshals a as TOML under name. Alias and identity namespaces
// are kept disjoint: writing an alias whose name collides with an
// existing identity is rejected.
func (l Locator) WriteAlias(name string, a Alias) error {
	if idPath, err := l.IdentityPath(name); err == nil {
		if _, statErr := os.Stat(idPath); statErr == nil {
			return errors.Errorf("config: %q is already an identity name; alias and identity names must be disjoint", name)
		}
	}
	path, err := l.AliasPath(name)
	if err != nil {
		return err
	}
	l.printer().Printf("Writing to %s", path)
	return writeTOML(path, a)
}

// ReadIdentity decodes the identity named name into v, preferring the
// local scope over the global scope.
func (l Locator) ReadIdentity(name string, v interface{}) error {
	local := Locator{Global: false, Printer: l.Printer}
	global := Locator{Global: true, Printer: l.Printer}
	path, err := resolveExisting(local, global, func(loc Locator) (string, error) { return loc.IdentityPath(name) })
	if err != nil {
		return errors.Wrapf(err, "config: identity %q not found", name)
	}
	l.printer().Printf("Found identity %q at %s", name, path)
	return readTOML(path, v)
}

// ReadNetwork decodes the network named name, preferring the local scope
// over the global scope.
func (l Locator) ReadNetwork(name string) (Network, error) {
	local := Locator{Global: false, Printer: l.Printer}
	global := Locator{Global: true, Printer: l.Printer}
	path, err := resolveExisting(local, global, func(loc Locator) (string, error) { return loc.NetworkPath(name) })
	if err != nil {
		return Network{}, errors.Wrapf(err, "config: network %q not found", name)
	}
	l.printer().Printf("Found network %q at %s", name, path)
	var n Network
	if err := readTOML(path, &n); err != nil {
		return Network{}, err
	}
	n.Name = name
	return n, nil
}

// ReadAlias decodes the alias named name, preferring the local scope over
// the global scope.
func (l Locator) ReadAlias(name string) (Alias, error) {
	local := Locator{Global: false, Printer: l.Printer}
	global := Locator{Global: true, Printer: l.Printer}
	path, err := resolveExisting(local, global, func(loc Locator) (string, error) { return loc.AliasPath(name) })
	if err != nil {
		return Alias{}, errors.Wrapf(err, "config: alias %q not found", name)
	}
	var a Alias
	if err := readTOML(path, &a); err != nil {
		return Alias{}, err
	}
	return a, nil
}

func resolveExisting(local, global Locator, path func(Locator) (string, error)) (string, error) {
	if p, err := path(local); err == nil {
		if _, statErr := os.Stat(p); statErr == nil {
			return p, nil
		}
	}
	p, err := path(global)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(p); statErr != nil {
		return "", statErr
	}
	return p, nil
}

func (l Locator) ListIdentities() ([]string, error) {
	dir, err := l.IdentityDir()
	if err != nil {
		return nil, err
	}
	return listTOMLNames(dir)
}

func (l Locator) ListNetworks() ([]string, error) {
	dir, err := l.NetworkDir()
	if err != nil {
		return nil, err
	}
	return listTOMLNames(dir)
}

func (l Locator) ListAliases() ([]string, error) {
	dir, err := l.AliasDir()
	if err != nil {
		return nil, err
	}
	return listTOMLNames(dir)
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "config: creating directory %s", dir)
	}
	return dir, nil
}

func writeTOML(path string, v interface{}) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "config: marshaling toml")
	}
	return os.WriteFile(path, b, 0o600)
}

func readTOML(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "config: reading file")
	}
	if err := toml.Unmarshal(b, v); err != nil {
		return errors.Wrap(err, "config: unmarshaling toml")
	}
	return nil
}

func listTOMLNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "config: listing %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".toml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}
