// Package apiscan builds API trees from Go module source.
//
// Packages become modules nested by directory, structs and interfaces become
// classes, and funcs, methods, consts and vars become functions and
// attributes. Only exported declarations are kept.
package apiscan

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// sourceFile is a parsed file together with its path relative to the module root.
type sourceFile struct {
	rel  string
	file *ast.File
}

// pkgFiles holds the parsed files of one package directory, in walk order.
type pkgFiles struct {
	relDir string
	files  []sourceFile
}

// Scan walks the Go module source at rootDir and builds the tree of its
// exported API. modulePath is the module import path (e.g.
// "github.com/acme/foo") and names the root node.
func Scan(ctx context.Context, rootDir, modulePath string) (*apitree.Node, error) {
	fset := token.NewFileSet()
	var pkgs []*pkgFiles
	byDir := make(map[string]*pkgFiles)

	walkErr := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip symlinks to prevent symlink-based path escapes.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			if path != rootDir && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, parseErr := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if parseErr != nil {
			slog.Warn("skipping unparsable file", "path", path, "error", parseErr)
			return nil
		}

		if file.Name.Name == "main" {
			return nil
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return fmt.Errorf("relativizing %s: %w", path, relErr)
		}
		rel = filepath.ToSlash(rel)
		relDir := filepath.ToSlash(filepath.Dir(rel))

		pkg, ok := byDir[relDir]
		if !ok {
			pkg = &pkgFiles{relDir: relDir}
			byDir[relDir] = pkg
			pkgs = append(pkgs, pkg)
		}
		pkg.files = append(pkg.files, sourceFile{rel: rel, file: file})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking source at %s: %w", rootDir, walkErr)
	}

	root := apitree.NewModule(modulePath)
	for _, pkg := range pkgs {
		b := &builder{fset: fset, pkg: packageNode(root, pkg.relDir)}
		b.collect(pkg.files)
	}

	slog.Debug("scanned module", "module", modulePath, "packages", len(pkgs), "members", root.MemberCount())
	return root, nil
}

// skipDir reports whether a directory holds no importable public API.
func skipDir(base string) bool {
	return base == "internal" || base == "testdata" || base == "vendor" ||
		strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")
}

// packageNode returns the module node for relDir, creating intermediate
// directories as needed. Package paths use import path syntax.
func packageNode(root *apitree.Node, relDir string) *apitree.Node {
	if relDir == "." || relDir == "" {
		return root
	}
	cur := root
	for _, seg := range strings.Split(relDir, "/") {
		child, ok := cur.Member(seg)
		if !ok || child.Kind != apitree.KindModule {
			child = cur.AddMember(apitree.NewModule(seg))
			child.Path = cur.Path + "/" + seg
		}
		cur = child
	}
	return cur
}

// builder adds the declarations of one package to its module node.
type builder struct {
	fset *token.FileSet
	pkg  *apitree.Node

	// aliases are resolved once every type of the package is known.
	aliases []*apitree.Node
}

// collect runs two passes: declarations first, then methods, so that
// methods find their receiver regardless of file order.
func (b *builder) collect(files []sourceFile) {
	for _, sf := range files {
		for _, decl := range sf.file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					b.collectFunc(sf.rel, d)
				}
			case *ast.GenDecl:
				switch d.Tok {
				case token.TYPE:
					b.collectTypes(sf.rel, d)
				case token.CONST, token.VAR:
					b.collectValues(sf.rel, d)
				}
			}
		}
	}

	for _, sf := range files {
		for _, decl := range sf.file.Decls {
			if d, ok := decl.(*ast.FuncDecl); ok && d.Recv != nil {
				b.collectMethod(sf.rel, d)
			}
		}
	}

	b.resolveAliases()
}

func (b *builder) place(n *apitree.Node, rel string, pos token.Pos) *apitree.Node {
	n.Filepath = rel
	n.Lineno = b.fset.Position(pos).Line
	return n
}

// collectFunc adds an exported top-level function.
func (b *builder) collectFunc(rel string, funcDecl *ast.FuncDecl) {
	if funcDecl.Name == nil || !funcDecl.Name.IsExported() {
		return
	}
	fn := apitree.NewFunction(funcDecl.Name.Name, funcReturns(funcDecl.Type), funcParameters(funcDecl.Type)...)
	b.pkg.AddMember(b.place(fn, rel, funcDecl.Pos()))
}

// collectMethod attaches an exported method to its receiver's class.
// Methods on unexported or non-class receivers are skipped.
func (b *builder) collectMethod(rel string, funcDecl *ast.FuncDecl) {
	if funcDecl.Name == nil || !funcDecl.Name.IsExported() {
		return
	}
	recvName := receiverTypeName(funcDecl.Recv)
	if recvName == "" || !ast.IsExported(recvName) {
		return
	}
	cls, ok := b.pkg.Member(recvName)
	if !ok || cls.Kind != apitree.KindClass {
		return
	}
	fn := apitree.NewFunction(funcDecl.Name.Name, funcReturns(funcDecl.Type), funcParameters(funcDecl.Type)...)
	cls.AddMember(b.place(fn, rel, funcDecl.Pos()))
}

// collectTypes adds exported type declarations. Structs and interfaces
// become classes, aliases become aliases, and other named types become
// attributes whose value is the underlying type.
func (b *builder) collectTypes(rel string, genDecl *ast.GenDecl) {
	for _, spec := range genDecl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok || typeSpec.Name == nil || !typeSpec.Name.IsExported() {
			continue
		}
		name := typeSpec.Name.Name

		if typeSpec.Assign.IsValid() {
			alias := apitree.NewAlias(name, b.qualify(renderTypeExpr(typeSpec.Type)))
			b.pkg.AddMember(b.place(alias, rel, typeSpec.Pos()))
			b.aliases = append(b.aliases, alias)
			continue
		}

		switch t := typeSpec.Type.(type) {
		case *ast.StructType:
			cls := b.place(apitree.NewClass(name), rel, typeSpec.Pos())
			b.pkg.AddMember(cls)
			b.collectStructFields(rel, cls, t)
		case *ast.InterfaceType:
			cls := b.place(apitree.NewClass(name), rel, typeSpec.Pos())
			b.pkg.AddMember(cls)
			b.collectInterfaceMethods(rel, cls, t)
		default:
			attr := apitree.NewAttribute(name, apitree.Literal(renderTypeExpr(typeSpec.Type)))
			b.pkg.AddMember(b.place(attr, rel, typeSpec.Pos()))
		}
	}
}

// collectStructFields turns embedded fields into bases and exported named
// fields into attributes annotated with their type.
func (b *builder) collectStructFields(rel string, cls *apitree.Node, structType *ast.StructType) {
	if structType.Fields == nil {
		return
	}
	for _, field := range structType.Fields.List {
		typeStr := renderTypeExpr(field.Type)

		if len(field.Names) == 0 {
			cls.Bases = append(cls.Bases, apitree.Literal(typeStr))
			continue
		}

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			attr := apitree.NewAttribute(name.Name, nil)
			attr.Annotation = apitree.Literal(typeStr)
			cls.AddMember(b.place(attr, rel, name.Pos()))
		}
	}
}

// collectInterfaceMethods turns embedded interfaces into bases and methods
// into functions.
func (b *builder) collectInterfaceMethods(rel string, cls *apitree.Node, interfaceType *ast.InterfaceType) {
	if interfaceType.Methods == nil {
		return
	}
	for _, method := range interfaceType.Methods.List {
		funcType, isFunc := method.Type.(*ast.FuncType)
		if len(method.Names) == 0 || !isFunc {
			cls.Bases = append(cls.Bases, apitree.Literal(renderTypeExpr(method.Type)))
			continue
		}
		name := method.Names[0]
		if !name.IsExported() {
			continue
		}
		fn := apitree.NewFunction(name.Name, funcReturns(funcType), funcParameters(funcType)...)
		cls.AddMember(b.place(fn, rel, name.Pos()))
	}
}

// collectValues adds exported consts and vars as attributes. The value is
// the initializer source, the annotation the declared type.
func (b *builder) collectValues(rel string, genDecl *ast.GenDecl) {
	for _, spec := range genDecl.Specs {
		valSpec, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range valSpec.Names {
			if !name.IsExported() {
				continue
			}
			var value apitree.Expr
			if i < len(valSpec.Values) {
				value = apitree.Literal(types.ExprString(valSpec.Values[i]))
			}
			attr := apitree.NewAttribute(name.Name, value)
			if valSpec.Type != nil {
				attr.Annotation = apitree.Literal(renderTypeExpr(valSpec.Type))
			}
			b.pkg.AddMember(b.place(attr, rel, name.Pos()))
		}
	}
}

// qualify turns a package-local type name into a full path. Qualified and
// composite types are returned unchanged.
func (b *builder) qualify(typeStr string) string {
	if token.IsIdentifier(typeStr) {
		return b.pkg.Path + "." + typeStr
	}
	return typeStr
}

// resolveAliases links aliases to same-package targets.
func (b *builder) resolveAliases() {
	prefix := b.pkg.Path + "."
	for _, alias := range b.aliases {
		name, ok := strings.CutPrefix(alias.TargetPath, prefix)
		if !ok {
			continue
		}
		if target, found := b.pkg.Member(name); found && target != alias {
			alias.Target = target
		}
	}
}

// baseTypeName extracts the base type name from an AST expression,
// stripping pointers, type parameters (generics), and package selectors.
// Examples: *Client -> "Client", Foo[T] -> "Foo", *Bar[T, U] -> "Bar"
func baseTypeName(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	// Strip pointer.
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}

	// Strip type parameters (generics).
	if idx, ok := expr.(*ast.IndexExpr); ok {
		expr = idx.X
	}
	if idx, ok := expr.(*ast.IndexListExpr); ok {
		expr = idx.X
	}

	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	if sel, ok := expr.(*ast.SelectorExpr); ok {
		return sel.Sel.Name
	}

	return ""
}

// receiverTypeName extracts the base type name from a method receiver.
func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return baseTypeName(recv.List[0].Type)
}

// FindSourceRoot walks from dir looking for go.mod to find the module source root.
// Checkouts and unpacked archives may nest the module a couple of levels down.
func FindSourceRoot(dir string) (string, error) {
	if hasGoMod(dir) {
		return dir, nil
	}

	// Walk at most 2 levels deep looking for go.mod.
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/")
		if depth > 2 {
			return fs.SkipDir
		}

		if hasGoMod(path) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for go.mod: %w", err)
	}

	if found == "" {
		return "", fmt.Errorf("no go.mod found under %s", dir)
	}
	return found, nil
}

// hasGoMod reports whether the directory contains a go.mod file.
func hasGoMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && !info.IsDir()
}
