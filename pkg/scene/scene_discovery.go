package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSceneID identifies the built-in scene
const DefaultSceneID = "default"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Display name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to the config file (json type only)
}

// ListScenes returns the built-in scene followed by every *.json config in dir, sorted by name.
// A missing directory yields only the built-in scene.
func ListScenes(dir string) ([]SceneInfo, error) {
	defaults := DefaultConfig()
	scenes := []SceneInfo{{
		ID:          DefaultSceneID,
		Name:        defaults.Name,
		Description: defaults.Description,
		Type:        "builtin",
	}}

	if dir == "" {
		return scenes, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return scenes, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var found []SceneInfo
	for _, filePath := range files {
		info, err := readSceneInfo(filePath)
		if err != nil {
			// Unreadable configs are left out; LoadConfig reports the details
			continue
		}
		found = append(found, info)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})

	return append(scenes, found...), nil
}

// readSceneInfo extracts the name and description fields of a config file
func readSceneInfo(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       "json:" + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Type:     "json",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, err
	}
	var meta struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return info, err
	}

	if meta.Name != "" {
		info.Name = meta.Name
	}
	info.Description = meta.Description
	return info, nil
}

// ResolveConfig loads the config for a scene ID returned by ListScenes
func ResolveConfig(dir, id string) (Config, error) {
	if id == "" || id == DefaultSceneID {
		return DefaultConfig(), nil
	}

	name, ok := strings.CutPrefix(id, "json:")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return Config{}, fmt.Errorf("%w: unknown scene %q", ErrInvalidConfig, id)
	}
	return LoadConfig(filepath.Join(dir, name+".json"))
}

// titleCase converts a filename-style string to title case
// e.g., "mirror-spheres" -> "Mirror Spheres"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
