package registry

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// findTestFunctions returns the names of the Test functions declared in the
// package's _test.go files, in file order. The package path is either
// relative ("./pkg") or module-qualified; module-qualified paths are
// resolved through the workdir's go.mod.
func findTestFunctions(pkgPath string, workingDir string) ([]string, error) {
	pkgDir, err := resolvePackageDir(pkgPath, workingDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var testFunctions []string
	fset := token.NewFileSet()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		f, err := parser.ParseFile(fset, filepath.Join(pkgDir, entry.Name()), nil, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		for _, decl := range f.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Recv != nil {
				continue
			}
			name := funcDecl.Name.Name
			if strings.HasPrefix(name, "Test") && name != "TestMain" {
				testFunctions = append(testFunctions, name)
			}
		}
	}

	return testFunctions, nil
}

// resolvePackageDir maps a package path onto a directory under workingDir.
func resolvePackageDir(pkgPath string, workingDir string) (string, error) {
	if strings.HasPrefix(pkgPath, "./") {
		return filepath.Join(workingDir, strings.TrimPrefix(pkgPath, "./")), nil
	}

	goModPath := filepath.Join(workingDir, "go.mod")
	goModContent, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	modFile, err := modfile.Parse(goModPath, goModContent, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}

	moduleName := modFile.Module.Mod.Path
	if moduleName == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}
	if !strings.HasPrefix(pkgPath, moduleName) {
		return "", fmt.Errorf("package %s is not in module %s", pkgPath, moduleName)
	}

	relPath := strings.TrimPrefix(pkgPath, moduleName)
	if relPath == "" {
		relPath = "."
	}
	return filepath.Join(workingDir, relPath), nil
}
