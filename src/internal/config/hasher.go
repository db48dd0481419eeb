package config

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

const hashCacheTTL = 5 * time.Minute

// ConfigHasher calculates an MD5 hash of everything that shapes the rendered block.
// It keeps the hash of the config file on disk (current) and the hash of the
// config used for the last build (active); a mismatch means the block on disk was
// produced from different settings and must be rebuilt even when it is fresh.
type ConfigHasher struct {
	configPath string

	// Current hash (from config file) with caching
	currentHash     string
	currentHashTime time.Time

	// Active hash (from the last build)
	activeHash string

	mu sync.RWMutex
}

// NewConfigHasher creates a new config hasher
func NewConfigHasher(configPath string) *ConfigHasher {
	return &ConfigHasher{
		configPath: configPath,
	}
}

// GetCurrentConfigHash returns cached hash of current config file
// Automatically calls UpdateCurrentConfigHash() on cache miss
func (h *ConfigHasher) GetCurrentConfigHash() (string, error) {
	h.mu.RLock()
	if time.Since(h.currentHashTime) < hashCacheTTL && h.currentHash != "" {
		hash := h.currentHash
		h.mu.RUnlock()
		return hash, nil
	}
	h.mu.RUnlock()

	return h.UpdateCurrentConfigHash()
}

// UpdateCurrentConfigHash reloads the config file and recalculates its hash
func (h *ConfigHasher) UpdateCurrentConfigHash() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg, err := LoadConfig(h.configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	hash, err := CalculateHash(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	h.currentHash = hash
	h.currentHashTime = time.Now()

	return hash, nil
}

// GetActiveConfigHash returns the hash of the config used for the last build
func (h *ConfigHasher) GetActiveConfigHash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeHash
}

// SetActiveConfigHash records the hash of the config used for a build
func (h *ConfigHasher) SetActiveConfigHash(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeHash = hash
}

// Changed reports whether the config on disk differs from the one used for the
// last build. It is false until an active hash has been recorded.
func (h *ConfigHasher) Changed() (bool, error) {
	current, err := h.UpdateCurrentConfigHash()
	if err != nil {
		return false, err
	}
	active := h.GetActiveConfigHash()
	return active != "" && active != current, nil
}

// CalculateHash generates MD5 hash of the settings that affect rendered output.
// Snippet files are hashed by content so editing them is noticed too.
func CalculateHash(config *Config) (string, error) {
	preText, err := config.PreText()
	if err != nil {
		preText = fmt.Sprintf("error:%v", err)
	}
	postText, err := config.PostText()
	if err != nil {
		postText = fmt.Sprintf("error:%v", err)
	}

	hashData := &ConfigHashData{
		TargetFile: config.GetAbsTargetFile(),
		Server:     config.General.Server,
		IPVersion:  int(config.General.IPVersion),
		Country:    config.General.Country,
		MarkerName: config.General.MarkerName,
		Position:   config.General.Position,
		PreText:    md5Hex([]byte(preText)),
		PostText:   md5Hex([]byte(postText)),
		Sources:    sortedSources(config.Sources),
	}

	jsonBytes, err := json.Marshal(hashData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config data: %w", err)
	}

	return md5Hex(jsonBytes), nil
}

// ConfigHashData represents the structure used for hashing
type ConfigHashData struct {
	TargetFile string     `json:"target_file"`
	Server     string     `json:"server"`
	IPVersion  int        `json:"ip_version"`
	Country    string     `json:"country"`
	MarkerName string     `json:"marker_name"`
	Position   string     `json:"position"`
	PreText    string     `json:"pre_text_md5"`
	PostText   string     `json:"post_text_md5"`
	Sources    [][]string `json:"sources"`
}

func sortedSources(overrides map[string]string) [][]string {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([][]string, 0, len(names))
	for _, name := range names {
		result = append(result, []string{name, overrides[name]})
	}
	return result
}

func md5Hex(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}
