package manifest

// Manifest is the top-level catalog document published by a catalog source.
type Manifest struct {
	Version   string      `json:"version"`
	Catalog   CatalogInfo `json:"catalog"`
	Artifacts []Artifact  `json:"artifacts"`
	// Profiles are decoded but not processed yet.
	Profiles []Profile `json:"profiles,omitempty"`
}

// CatalogInfo is the catalog metadata block of a manifest.
type CatalogInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	License     string     `json:"license"`
	Homepage    string     `json:"homepage,omitempty"`
	Repository  Repository `json:"repository"`
}

// Repository describes where the catalog's artifact files are hosted.
type Repository struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Branch    string `json:"branch,omitempty"`
	Directory string `json:"directory,omitempty"`
}

// Artifact is one installable entry of a manifest.
type Artifact struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Path            string         `json:"path"`
	Version         string         `json:"version"`
	Category        string         `json:"category"`
	Tags            []string       `json:"tags"`
	Keywords        []string       `json:"keywords,omitempty"`
	Language        string         `json:"language,omitempty"`
	Framework       string         `json:"framework,omitempty"`
	UseCase         string         `json:"useCase,omitempty"`
	Difficulty      string         `json:"difficulty,omitempty"`
	EstimatedTime   string         `json:"estimatedTime,omitempty"`
	Author          string         `json:"author,omitempty"`
	Compatibility   map[string]any `json:"compatibility,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Dependencies    []string       `json:"dependencies"`
	SupportingFiles []string       `json:"supportingFiles"`
}

// Profile is a named bundle of artifacts across catalogs.
type Profile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Artifacts   []ProfileRef `json:"artifacts"`
}

// ProfileRef points at one artifact of a profile.
type ProfileRef struct {
	CatalogID  string `json:"catalogId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version,omitempty"`
}

// Rating returns metadata.rating when the manifest supplies a number.
func (a *Artifact) Rating() float64 {
	if v, ok := a.Metadata["rating"].(float64); ok {
		return v
	}
	return 0
}

// Downloads returns metadata.downloads when the manifest supplies a number.
func (a *Artifact) Downloads() int64 {
	if v, ok := a.Metadata["downloads"].(float64); ok && v > 0 {
		return int64(v)
	}
	return 0
}

// Artifact type constants for the type discriminator field.
const (
	TypeChatmode     = "chatmode"
	TypeInstructions = "instructions"
	TypePrompt       = "prompt"
	TypeTask         = "task"
	TypeProfile      = "profile"
)

// ValidTypes contains all valid artifact type values.
var ValidTypes = []string{
	TypeChatmode,
	TypeInstructions,
	TypePrompt,
	TypeTask,
	TypeProfile,
}
