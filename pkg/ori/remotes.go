package ori

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Remote is a named replication peer.
type Remote struct {
	URL string `toml:"url"`
}

type config struct {
	Remotes map[string]Remote `toml:"remotes"`
}

func (r *Repository) loadConfig() (*config, error) {
	cfg := &config{Remotes: make(map[string]Remote)}

	path := filepath.Join(r.oriDir, configFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]Remote)
	}
	return cfg, nil
}

func (r *Repository) saveConfig(cfg *config) error {
	f, err := os.Create(filepath.Join(r.oriDir, configFile))
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// AddRemote records a named remote.
func (r *Repository) AddRemote(name, url string) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()

	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	if _, exists := cfg.Remotes[name]; exists {
		return fmt.Errorf("remote %s already exists", name)
	}
	cfg.Remotes[name] = Remote{URL: url}
	return r.saveConfig(cfg)
}

// RemoveRemote deletes a named remote.
func (r *Repository) RemoveRemote(name string) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()

	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	if _, exists := cfg.Remotes[name]; !exists {
		return fmt.Errorf("remote %s does not exist", name)
	}
	delete(cfg.Remotes, name)
	return r.saveConfig(cfg)
}

// Remotes lists the configured remotes sorted by name.
func (r *Repository) Remotes() ([]string, map[string]Remote, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, cfg.Remotes, nil
}

// ResolveRemote maps a remote name to its URL; an unknown name is taken to
// be a URL itself.
func (r *Repository) ResolveRemote(nameOrURL string) (string, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return "", err
	}
	if remote, ok := cfg.Remotes[nameOrURL]; ok {
		return remote.URL, nil
	}
	return nameOrURL, nil
}
