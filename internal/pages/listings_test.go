package pages

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePrefix = "github.com/mwiater/llamagallery/internal/"

var importPattern = regexp.MustCompile(`"` + regexp.QuoteMeta(modulePrefix) + `([a-z/]+)"`)

// exportedNames returns the package-level exported identifiers declared in dir.
func exportedNames(t *testing.T, dir string) map[string]bool {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	require.NoError(t, err)
	require.NotEmpty(t, files, dir)

	names := map[string]bool{}
	fset := token.NewFileSet()
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
		require.NoError(t, err)
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					names[d.Name.Name] = true
				}
			case *ast.GenDecl:
				for _, s := range d.Specs {
					switch sp := s.(type) {
					case *ast.TypeSpec:
						names[sp.Name.Name] = true
					case *ast.ValueSpec:
						for _, n := range sp.Names {
							names[n.Name] = true
						}
					}
				}
			}
		}
	}
	return names
}

func TestListingsReferenceExistingIdentifiers(t *testing.T) {
	declared := map[string]map[string]bool{}
	checked := 0

	err := fs.WalkDir(Listings(), ListingRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		src, err := fs.ReadFile(Listings(), p)
		if err != nil {
			return err
		}
		text := string(src)
		for _, m := range importPattern.FindAllStringSubmatch(text, -1) {
			pkg := m[1]
			if declared[pkg] == nil {
				declared[pkg] = exportedNames(t, filepath.Join("..", filepath.FromSlash(pkg)))
			}
			ref := regexp.MustCompile(`\b` + regexp.QuoteMeta(path.Base(pkg)) + `\.([A-Z]\w*)`)
			for _, r := range ref.FindAllStringSubmatch(text, -1) {
				checked++
				assert.True(t, declared[pkg][r[1]], "%s uses %s.%s, which is not declared", p, path.Base(pkg), r[1])
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, checked)
}
