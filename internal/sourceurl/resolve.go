package sourceurl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/agentx-labs/promptreg/internal/manifest"
)

const defaultBranch = "main"

var fileSuffix = regexp.MustCompile(`(?i)\.[a-z0-9]+$`)

// Resolve returns the fetchable URL of path inside repo.
func Resolve(repo manifest.Repository, path string) string {
	path = strings.TrimLeft(path, "/")
	branch := repo.Branch
	if branch == "" {
		branch = defaultBranch
	}

	switch strings.ToLower(repo.Type) {
	case "gitlab":
		return gitlab(repo.URL, branch, path)
	case "github":
		return github(repo.URL, branch, path)
	default:
		return generic(repo.URL, path)
	}
}

func gitlab(base, branch, path string) string {
	if i := strings.Index(base, "/-/raw/"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimRight(base, "/")
	return base + "/-/raw/" + branch + "/" + path
}

func github(base, branch, path string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		base = strings.TrimRight(strings.TrimSuffix(base, ".git"), "/")
		return naiveJoin(base, branch+"/"+path)
	}
	if strings.EqualFold(u.Host, "github.com") || strings.EqualFold(u.Host, "www.github.com") {
		u.Host = "raw.githubusercontent.com"
	}

	// Only a raw or blob segment after /<owner>/<repo> starts a file view.
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 2; i < len(segs); i++ {
		if segs[i] == "raw" || segs[i] == "blob" {
			segs = segs[:i]
			break
		}
	}
	repoPath := strings.TrimRight(strings.TrimSuffix(strings.Join(segs, "/"), ".git"), "/")
	if repoPath != "" {
		repoPath = "/" + repoPath
	}
	u.Path = repoPath + "/" + branch + "/" + path
	u.RawPath = ""
	return u.String()
}

func generic(base, path string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return naiveJoin(base, path)
	}

	dir := strings.TrimRight(u.Path, "/")
	// A bare domain never counts as a file, whatever its TLD looks like.
	// A trailing slash marks a directory.
	isDir := strings.HasSuffix(u.Path, "/")
	if last := lastSegment(dir); !isDir && last != "" && fileSuffix.MatchString(last) {
		dir = dir[:strings.LastIndex(dir, "/")]
	}
	u.Path = dir + "/" + path
	u.RawPath = ""
	return u.String()
}

func lastSegment(p string) string {
	if p == "" {
		return ""
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func naiveJoin(base, path string) string {
	if base == "" {
		return path
	}
	if strings.HasSuffix(base, "/") {
		return base + path
	}
	return base + "/" + path
}

// ManifestURL rewrites a browser URL of a manifest file into its raw form so
// users can paste the page they are looking at. Other URLs are returned as is.
func ManifestURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	switch {
	case strings.EqualFold(u.Host, "github.com") || strings.EqualFold(u.Host, "www.github.com"):
		// /owner/repo/blob/branch/path -> raw.githubusercontent.com/owner/repo/branch/path
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 4)
		if len(parts) == 4 && parts[2] == "blob" {
			u.Host = "raw.githubusercontent.com"
			u.Path = "/" + parts[0] + "/" + parts[1] + "/" + parts[3]
			u.RawQuery = ""
			return u.String()
		}
	case strings.Contains(u.Path, "/-/blob/"):
		u.Path = strings.Replace(u.Path, "/-/blob/", "/-/raw/", 1)
		return u.String()
	}
	return raw
}
