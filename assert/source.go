package assert

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"sync"
)

// sourceFile is a parsed caller source used to recover the argument
// expressions of assertion calls.
type sourceFile struct {
	fset *token.FileSet
	file *ast.File
	src  []byte
}

var sources = struct {
	mu    sync.Mutex
	files map[string]*sourceFile // nil entry: unreadable or unparsable
}{files: make(map[string]*sourceFile)}

func loadSource(path string) *sourceFile {
	sources.mu.Lock()
	defer sources.mu.Unlock()

	if sf, ok := sources.files[path]; ok {
		return sf
	}
	var sf *sourceFile
	if src, err := os.ReadFile(path); err == nil {
		fset := token.NewFileSet()
		if f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution); err == nil {
			sf = &sourceFile{fset: fset, file: f, src: src}
		}
	}
	sources.files[path] = sf
	return sf
}

// callArgs returns the source text of the arguments of the call to method
// found at path:line, or nil if the call cannot be located.
func callArgs(path string, line int, method string) []string {
	sf := loadSource(path)
	if sf == nil {
		return nil
	}

	var found *ast.CallExpr
	ast.Inspect(sf.file, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		start := sf.fset.Position(call.Pos()).Line
		end := sf.fset.Position(call.End()).Line
		if line < start || line > end {
			return false
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == method {
			found = call
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}

	args := make([]string, 0, len(found.Args))
	for _, arg := range found.Args {
		from := sf.fset.Position(arg.Pos()).Offset
		to := sf.fset.Position(arg.End()).Offset
		args = append(args, strings.Join(strings.Fields(string(sf.src[from:to])), " "))
	}
	return args
}
