package runner

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/heshanpadmasiri/cy2pw/config"
)

// Renamer applies the two fixed renames: the spec suffix and the directory
// remap. Paths are project relative.
type Renamer struct {
	dirs       [][2]string
	suffixFrom string
	suffixTo   string
}

// NewRenamer builds the renames configured in c.
func NewRenamer(c config.Config) Renamer {
	return Renamer{
		dirs:       c.DirectoryRules(),
		suffixFrom: c.Renames.SuffixFrom,
		suffixTo:   c.Renames.SuffixTo,
	}
}

// Directory remaps the leading source folder of p.
func (r Renamer) Directory(p string) string {
	slashed := filepath.ToSlash(path.Clean(filepath.ToSlash(p)))
	for _, rule := range r.dirs {
		from, to := rule[0], rule[1]
		if slashed == from {
			return filepath.FromSlash(to)
		}
		if strings.HasPrefix(slashed, from+"/") {
			return filepath.FromSlash(path.Join(to, slashed[len(from)+1:]))
		}
	}
	return p
}

// Suffix renames a spec file name such as login.cy.js to login.spec.js.
func (r Renamer) Suffix(p string) string {
	if r.suffixFrom == "" {
		return p
	}
	dir, base := filepath.Split(p)
	i := strings.LastIndex(base, r.suffixFrom)
	if i < 0 {
		return p
	}
	return dir + base[:i] + r.suffixTo + base[i+len(r.suffixFrom):]
}

// Target returns the converted location of a source file.
func (r Renamer) Target(p string) string {
	return r.Suffix(r.Directory(p))
}
