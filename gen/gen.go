// Package gen emits typed Go bindings for a declaration file.
//
// Every declared class becomes three things in the generated package:
//
//	var WidgetDecl = decl.NewClass("com/example/Widget", ...)
//	type Widget struct{ *binding.Object }       // instance methods and fields
//	type WidgetFactory struct{ Class *binding.Class } // constructors and statics
//
// Each overload gets its own Go method whose parameter types mirror the
// declared signature, so the Go compiler rejects argument sets no overload
// accepts. The overload index is fixed at generation time and the selection
// it names is kept in a package-level cache.Cell, so no runtime selection
// happens on the call path.
//
// Overloaded members are named by their parameter types: resize(I) and
// resize(FF) become ResizeInt and ResizeFloatFloat. Fields get Get and Set
// accessors. Inherited members are generated on every subclass.
package gen

import (
	"bytes"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/jtype"
	"github.com/wippyai/jni-bind/sig"
)

const (
	modulePath  = "github.com/wippyai/jni-bind"
	arrayPkg    = modulePath + "/array"
	bindingPkg  = modulePath + "/binding"
	cachePkg    = modulePath + "/cache"
	declPkg     = modulePath + "/decl"
	ffiPkg      = modulePath + "/ffi"
	jtypePkg    = modulePath + "/jtype"
	jvmPkg      = modulePath + "/jvm"
	loaderPkg   = modulePath + "/loader"
	selectorPkg = modulePath + "/selector"
)

// Options tune generation. A nil *Options uses the file's package name.
type Options struct {
	// Package overrides the package name declared in the file.
	Package string
	// Source names the declaration file in the generated header.
	Source string
}

// objectMethods are promoted from the embedded *binding.Object and must not
// be shadowed by generated members.
var objectMethods = []string{
	"Object", "Class", "Local", "Handle", "IsNull", "JavaType", "Descriptor",
	"Env", "Close", "Move", "Release", "NewRef", "Promote", "Call",
	"CallOverload", "CallSelected", "Get", "Set", "IsSameObject",
}

// Generate renders the bindings for f as formatted Go source.
func Generate(f *decl.File, opts *Options) ([]byte, error) {
	if f == nil {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "nil declaration file")
	}
	if opts == nil {
		opts = &Options{}
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = f.Package
	}
	if !token.IsIdentifier(pkg) {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "invalid package name "+strconv.Quote(pkg))
	}
	if len(f.Classes) == 0 {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "no classes declared")
	}

	g := &generator{
		out:      jen.NewFile(pkg),
		globals:  namer{},
		typeName: make(map[string]string, len(f.Classes)),
	}
	for _, c := range f.Classes {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidDeclaration, err, c.Name)
		}
		if _, dup := g.typeName[c.Name]; dup {
			return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidDeclaration).
				Path(c.Name).Detail("class declared twice").Build()
		}
		g.typeName[c.Name] = g.globals.take(typeIdent(c.Name))
	}
	for _, c := range f.Classes {
		// Factory and declaration names are derived from the type name;
		// reserve them before any class claims them as its own.
		name := g.typeName[c.Name]
		g.globals.take(name + "Decl")
		g.globals.take(name + "Factory")
		g.globals.take("New" + name + "Factory")
	}

	if opts.Source != "" {
		g.out.HeaderComment("Code generated by jbindgen from " + opts.Source + ". DO NOT EDIT.")
	} else {
		g.out.HeaderComment("Code generated by jbindgen. DO NOT EDIT.")
	}
	g.out.ImportName(bindingPkg, "binding")
	g.out.ImportName(cachePkg, "cache")
	g.out.ImportName(declPkg, "decl")
	g.out.ImportName(jtypePkg, "jtype")

	for _, c := range f.Classes {
		g.class(c)
	}
	if len(f.Loaders) > 0 {
		g.loaders(f)
	}

	var buf bytes.Buffer
	if err := g.out.Render(&buf); err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidData, err, "render")
	}
	return buf.Bytes(), nil
}

type generator struct {
	out      *jen.File
	globals  namer
	typeName map[string]string
}

// namer hands out unique identifiers, suffixing repeats with a counter.
type namer map[string]bool

func (n namer) take(name string) string {
	base := name
	for i := 2; n[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n[name] = true
	return name
}

func (g *generator) class(c *decl.Class) {
	name := g.typeName[c.Name]
	declVar := name + "Decl"
	factory := name + "Factory"
	binary := sig.ToBinaryName(c.Name)

	g.out.Commentf("%s describes %s.", declVar, binary)
	g.out.Var().Id(declVar).Op("=").Add(g.classExpr(c, true))
	g.out.Line()

	g.out.Commentf("%s is a transient %s instance. The zero value is null.", name, binary)
	g.out.Type().Id(name).Struct(jen.Op("*").Qual(bindingPkg, "Object"))
	g.out.Line()

	g.out.Commentf("%s constructs %s instances and reaches its static members.", factory, binary)
	g.out.Type().Id(factory).Struct(jen.Id("Class").Op("*").Qual(bindingPkg, "Class"))
	g.out.Line()

	g.out.Commentf("New%s binds %s on rt.", factory, binary)
	g.out.Func().Id("New"+factory).Params(jen.Id("rt").Op("*").Qual(jvmPkg, "Runtime")).Id(factory).Block(
		jen.Return(jen.Id(factory).Values(keyed("Class", jen.Qual(bindingPkg, "Bind").Call(jen.Id("rt"), jen.Id(declVar))))),
	)

	inst := namer{}
	for _, m := range objectMethods {
		inst[m] = true
	}
	fact := namer{"Class": true}

	g.constructors(c, fact)
	if c.Static != nil {
		for _, m := range c.Static.Methods {
			g.method(c, c, m, true, fact)
		}
		for _, fd := range c.Static.Fields {
			g.field(c, c, fd, true, fact)
		}
	}

	seen := map[string]bool{}
	for cls := c; cls != nil; cls = cls.Parent {
		for _, m := range cls.Methods {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			g.method(c, cls, m, false, inst)
		}
	}
	seen = map[string]bool{}
	for cls := c; cls != nil; cls = cls.Parent {
		for _, fd := range cls.Fields {
			if seen[fd.Name] {
				continue
			}
			seen[fd.Name] = true
			g.field(c, cls, fd, false, inst)
		}
	}
}

// classExpr builds the decl.NewClass call for c. Parents declared in the same
// file are referenced by variable; others are inlined.
func (g *generator) classExpr(c *decl.Class, top bool) *jen.Statement {
	args := []jen.Code{jen.Lit(c.Name)}
	if p := c.Parent; p != nil {
		if name, ok := g.typeName[p.Name]; ok {
			args = append(args, jen.Qual(declPkg, "Extends").Call(jen.Id(name+"Decl")))
		} else {
			args = append(args, jen.Qual(declPkg, "Extends").Call(g.classExpr(p, false)))
		}
	}
	if len(c.Fields) > 0 {
		args = append(args, jen.Qual(declPkg, "WithFields").Call(fieldExprs(c.Fields)...))
	}
	if len(c.Methods) > 0 {
		args = append(args, jen.Qual(declPkg, "WithMethods").Call(methodExprs(c.Methods)...))
	}
	if len(c.Constructors) > 0 {
		ctors := make([]jen.Code, len(c.Constructors))
		for i, ctor := range c.Constructors {
			ctors[i] = jen.Qual(declPkg, "NewConstructor").Call(typeExprs(ctor.Params)...)
		}
		args = append(args, jen.Qual(declPkg, "WithConstructors").Call(ctors...))
	}
	if st := c.Static; st != nil {
		fields, methods := jen.Nil(), jen.Nil()
		if len(st.Fields) > 0 {
			fields = jen.Index().Qual(declPkg, "Field").Values(fieldExprs(st.Fields)...)
		}
		if len(st.Methods) > 0 {
			methods = jen.Index().Qual(declPkg, "Method").Values(methodExprs(st.Methods)...)
		}
		args = append(args, jen.Qual(declPkg, "WithStatic").Call(fields, methods))
	}
	return jen.Qual(declPkg, "NewClass").Custom(jen.Options{
		Open:      "(",
		Close:     ")",
		Separator: ",",
		Multi:     top && len(args) > 2,
	}, args...)
}

func fieldExprs(fields []decl.Field) []jen.Code {
	out := make([]jen.Code, len(fields))
	for i, f := range fields {
		out[i] = jen.Qual(declPkg, "NewField").Call(jen.Lit(f.Name), typeExpr(f.Type))
	}
	return out
}

func methodExprs(methods []decl.Method) []jen.Code {
	out := make([]jen.Code, len(methods))
	for i, m := range methods {
		args := []jen.Code{jen.Lit(m.Name)}
		for _, o := range m.Overloads {
			args = append(args, jen.Qual(declPkg, "Returns").Call(
				append([]jen.Code{typeExpr(o.Return)}, typeExprs(o.Params)...)...,
			))
		}
		out[i] = jen.Qual(declPkg, "NewMethod").Call(args...)
	}
	return out
}

func typeExprs(ts []jtype.Type) []jen.Code {
	out := make([]jen.Code, len(ts))
	for i, t := range ts {
		out[i] = typeExpr(t)
	}
	return out
}

var kindIdents = map[jtype.Kind]string{
	jtype.KindVoid:    "Void",
	jtype.KindBoolean: "Boolean",
	jtype.KindByte:    "Byte",
	jtype.KindChar:    "Char",
	jtype.KindShort:   "Short",
	jtype.KindInt:     "Int",
	jtype.KindLong:    "Long",
	jtype.KindFloat:   "Float",
	jtype.KindDouble:  "Double",
	jtype.KindString:  "String",
	jtype.KindSelf:    "Self",
}

// typeExpr renders t as a jtype expression.
func typeExpr(t jtype.Type) *jen.Statement {
	var s *jen.Statement
	if t.Kind == jtype.KindObject {
		s = jen.Qual(jtypePkg, "Object").Call(jen.Lit(t.Class))
	} else {
		s = jen.Qual(jtypePkg, kindIdents[t.Kind])
	}
	if t.Rank > 0 {
		s = s.Dot("Array").Call(jen.Lit(t.Rank))
	}
	return s
}

func (g *generator) constructors(c *decl.Class, names namer) {
	name := g.typeName[c.Name]
	for i, ctor := range c.Constructors {
		goName := "New"
		if len(c.Constructors) > 1 {
			goName += g.paramSuffix(ctor.Params, c)
		}
		goName = names.take(goName)
		cell := g.globals.take("sel" + name + "Factory" + goName)

		params, args := g.params(ctor.Params, c)
		g.out.Var().Id(cell).Qual(cachePkg, "Cell").Types(jen.Qual(selectorPkg, "Selection"))
		g.out.Commentf("%s calls constructor %s.", goName, ctor.Signature(c.Name))
		g.out.Func().Params(jen.Id("f").Id(name+"Factory")).Id(goName).
			Params(append([]jen.Code{jen.Id("env").Qual(ffiPkg, "Env")}, params...)...).
			Parens(jen.List(jen.Id(name), jen.Error())).
			Block(
				jen.List(jen.Id("s"), jen.Err()).Op(":=").Qual(bindingPkg, "ConstructorAt").Call(
					jen.Op("&").Id(cell), jen.Id(name+"Decl"), jen.Lit(i),
				),
				ifErr(jen.Id(name).Values()),
				jen.List(jen.Id("o"), jen.Err()).Op(":=").Id("f").Dot("Class").Dot("NewSelected").Call(
					append([]jen.Code{jen.Id("env"), jen.Id("s")}, args...)...,
				),
				ifErr(jen.Id(name).Values()),
				jen.Return(jen.Id(name).Values(keyed("Object", jen.Id("o"))), jen.Nil()),
			)
	}
}

// method emits one Go method per overload of m. c is the generated class,
// owner the class that declares m.
func (g *generator) method(c, owner *decl.Class, m decl.Method, static bool, names namer) {
	name := g.typeName[c.Name]
	base := exported(m.Name)
	for i, o := range m.Overloads {
		o = o.Resolve(owner.Name)
		goName := base
		if len(m.Overloads) > 1 {
			goName += g.paramSuffix(o.Params, c)
		}
		goName = names.take(goName)

		var recv, cell string
		var call *jen.Statement
		params, args := g.params(o.Params, c)
		if static {
			recv = "f"
			cell = g.globals.take("sel" + name + "Factory" + goName)
			params = append([]jen.Code{jen.Id("env").Qual(ffiPkg, "Env")}, params...)
			call = jen.Id("f").Dot("Class").Dot("CallStaticSelected").Call(
				append([]jen.Code{jen.Id("env"), jen.Id("s")}, args...)...,
			)
		} else {
			recv = "o"
			cell = g.globals.take("sel" + name + goName)
			call = jen.Id("o").Dot("CallSelected").Call(append([]jen.Code{jen.Id("s")}, args...)...)
		}

		body := []jen.Code{
			jen.List(jen.Id("s"), jen.Err()).Op(":=").Qual(bindingPkg, "MethodAt").Call(
				jen.Op("&").Id(cell), jen.Id(name+"Decl"), jen.Lit(m.Name), jen.Lit(static), jen.Lit(i),
			),
		}
		var results jen.Code
		if o.Return.IsVoid() {
			results = jen.Error()
			body = append(body,
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
				jen.List(jen.Id("_"), jen.Err()).Op("=").Add(call),
				jen.Return(jen.Err()),
			)
		} else {
			zero := g.zero(o.Return, c)
			results = jen.Parens(jen.List(g.goType(o.Return, c), jen.Error()))
			body = append(body,
				ifErr(zero),
				jen.List(jen.Id("v"), jen.Err()).Op(":=").Add(call),
				ifErr(g.zero(o.Return, c)),
			)
			body = append(body, g.unwrap(o.Return, c, recv)...)
		}

		g.out.Var().Id(cell).Qual(cachePkg, "Cell").Types(jen.Qual(selectorPkg, "Selection"))
		g.out.Commentf("%s calls %s%s.", goName, m.Name, o.Signature(owner.Name))
		g.out.Func().Params(jen.Id(recv).Id(receiverType(name, static))).Id(goName).
			Params(params...).Add(results).Block(body...)
	}
}

// field emits a getter and setter for fd.
func (g *generator) field(c, owner *decl.Class, fd decl.Field, static bool, names namer) {
	name := g.typeName[c.Name]
	t := fd.Type.ResolveSelf(owner.Name)
	getter := names.take("Get" + exported(fd.Name))
	setter := names.take("Set" + exported(fd.Name))

	recv := "o"
	var get, set *jen.Statement
	var getParams, setParams []jen.Code
	if static {
		recv = "f"
		getParams = []jen.Code{jen.Id("env").Qual(ffiPkg, "Env")}
		setParams = []jen.Code{jen.Id("env").Qual(ffiPkg, "Env"), jen.Id("x").Add(g.goType(t, c))}
		get = jen.Id("f").Dot("Class").Dot("GetStatic").Call(jen.Id("env"), jen.Lit(fd.Name))
		set = jen.Id("f").Dot("Class").Dot("SetStatic").Call(jen.Id("env"), jen.Lit(fd.Name), jen.Id("x"))
	} else {
		setParams = []jen.Code{jen.Id("x").Add(g.goType(t, c))}
		get = jen.Id("o").Dot("Get").Call(jen.Lit(fd.Name))
		set = jen.Id("o").Dot("Set").Call(jen.Lit(fd.Name), jen.Id("x"))
	}

	body := []jen.Code{
		jen.List(jen.Id("v"), jen.Err()).Op(":=").Add(get),
		ifErr(g.zero(t, c)),
	}
	body = append(body, g.unwrap(t, c, recv)...)

	g.out.Commentf("%s reads field %s.", getter, fd.Name)
	g.out.Func().Params(jen.Id(recv).Id(receiverType(name, static))).Id(getter).
		Params(getParams...).Parens(jen.List(g.goType(t, c), jen.Error())).Block(body...)
	g.out.Commentf("%s writes field %s.", setter, fd.Name)
	g.out.Func().Params(jen.Id(recv).Id(receiverType(name, static))).Id(setter).
		Params(setParams...).Error().Block(jen.Return(set))
}

// keyed renders a single-field composite literal element on one line.
func keyed(field string, v jen.Code) *jen.Statement {
	return jen.Id(field).Op(":").Add(v)
}

func receiverType(name string, static bool) string {
	if static {
		return name + "Factory"
	}
	return name
}

func ifErr(zero jen.Code) *jen.Statement {
	return jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero, jen.Err()))
}

func (g *generator) params(ts []jtype.Type, c *decl.Class) (params, args []jen.Code) {
	for i, t := range ts {
		id := "a" + strconv.Itoa(i)
		params = append(params, jen.Id(id).Add(g.goType(t, c)))
		args = append(args, jen.Id(id))
	}
	return params, args
}

var primitiveGo = map[jtype.Kind]func() *jen.Statement{
	jtype.KindBoolean: jen.Bool,
	jtype.KindByte:    jen.Int8,
	jtype.KindChar:    jen.Uint16,
	jtype.KindShort:   jen.Int16,
	jtype.KindInt:     jen.Int32,
	jtype.KindLong:    jen.Int64,
	jtype.KindFloat:   jen.Float32,
	jtype.KindDouble:  jen.Float64,
}

var accessors = map[jtype.Kind]string{
	jtype.KindBoolean: "Bool",
	jtype.KindByte:    "Byte",
	jtype.KindChar:    "Char",
	jtype.KindShort:   "Short",
	jtype.KindInt:     "Int",
	jtype.KindLong:    "Long",
	jtype.KindFloat:   "Float",
	jtype.KindDouble:  "Double",
}

// goType maps a resolved member type to the Go type generated code uses.
func (g *generator) goType(t jtype.Type, c *decl.Class) *jen.Statement {
	t = t.ResolveSelf(c.Name)
	switch {
	case t.Rank > 0:
		return jen.Op("*").Qual(arrayPkg, "Array")
	case t.Kind == jtype.KindString:
		return jen.String()
	case t.Kind.IsPrimitive():
		return primitiveGo[t.Kind]()
	}
	if name, ok := g.typeName[t.Class]; ok {
		return jen.Id(name)
	}
	return jen.Op("*").Qual(bindingPkg, "Object")
}

func (g *generator) zero(t jtype.Type, c *decl.Class) jen.Code {
	t = t.ResolveSelf(c.Name)
	switch {
	case t.Rank > 0:
		return jen.Nil()
	case t.Kind == jtype.KindString:
		return jen.Lit("")
	case t.Kind == jtype.KindBoolean:
		return jen.False()
	case t.Kind.IsPrimitive():
		return jen.Lit(0)
	}
	if name, ok := g.typeName[t.Class]; ok {
		return jen.Id(name).Values()
	}
	return jen.Nil()
}

// unwrap converts the binding.Value v into the generated return type.
func (g *generator) unwrap(t jtype.Type, c *decl.Class, recv string) []jen.Code {
	t = t.ResolveSelf(c.Name)
	v := func() *jen.Statement { return jen.Id("v") }
	switch {
	case t.Rank > 0:
		return []jen.Code{jen.Return(v().Dot("Array").Call())}
	case t.Kind == jtype.KindString:
		return []jen.Code{jen.Return(v().Dot("Text").Call())}
	case t.Kind.IsPrimitive():
		return []jen.Code{jen.Return(v().Dot(accessors[t.Kind]).Call(), jen.Nil())}
	}

	name, declared := g.typeName[t.Class]
	switch {
	case !declared:
		return []jen.Code{jen.Return(v().Dot("Object").Call(), jen.Nil())}
	case t.Class == c.Name || c.IsSubclassOf(t.Class):
		// The receiver's binding already knows this class or ancestor.
		return []jen.Code{jen.Return(jen.Id(name).Values(keyed("Object", v().Dot("Object").Call())), jen.Nil())}
	}

	rt := jen.Id(recv).Dot("Class").Dot("Runtime").Call()
	if recv == "o" {
		rt = jen.Id(recv).Dot("Class").Call().Dot("Runtime").Call()
	}
	return []jen.Code{
		jen.List(jen.Id("obj"), jen.Err()).Op(":=").Add(v().Dot("ObjectAs").Call(
			jen.Qual(bindingPkg, "Bind").Call(rt, jen.Id(name+"Decl")),
		)),
		ifErr(jen.Id(name).Values()),
		jen.Return(jen.Id(name).Values(keyed("Object", jen.Id("obj"))), jen.Nil()),
	}
}

// paramSuffix names an overload by its parameter types.
func (g *generator) paramSuffix(ts []jtype.Type, c *decl.Class) string {
	var b strings.Builder
	for _, t := range ts {
		t = t.ResolveSelf(c.Name)
		switch {
		case t.Kind == jtype.KindObject:
			if name, ok := g.typeName[t.Class]; ok {
				b.WriteString(name)
			} else {
				b.WriteString(typeIdent(t.Class))
			}
		default:
			b.WriteString(kindIdents[t.Kind])
		}
		if t.Rank > 0 {
			b.WriteString("Array")
			if t.Rank > 1 {
				b.WriteString(strconv.Itoa(t.Rank))
			}
		}
	}
	return b.String()
}

func (g *generator) loaders(f *decl.File) {
	specs := make([]jen.Code, len(f.Loaders))
	for i, l := range f.Loaders {
		classes := make([]jen.Code, len(l.Classes))
		for j, c := range l.Classes {
			classes[j] = jen.Lit(c)
		}
		d := jen.Dict{
			jen.Id("Name"):    jen.Lit(l.Name),
			jen.Id("Classes"): jen.Index().String().Values(classes...),
		}
		if l.Parent != "" {
			d[jen.Id("Parent")] = jen.Lit(l.Parent)
		}
		specs[i] = jen.Values(d)
	}
	classes := make([]jen.Code, len(f.Classes))
	for i, c := range f.Classes {
		classes[i] = jen.Id(g.typeName[c.Name] + "Decl")
	}

	name := g.globals.take("Loaders")
	g.out.Commentf("%s builds the class-loader topology declared with these classes.", name)
	g.out.Func().Id(name).Params().Parens(jen.List(jen.Op("*").Qual(loaderPkg, "Runtime"), jen.Error())).Block(
		jen.Return(jen.Qual(loaderPkg, "FromSpecs").Call(
			jen.Index().Qual(declPkg, "LoaderSpec").Values(specs...),
			jen.Index().Op("*").Qual(declPkg, "Class").Values(classes...),
		)),
	)
}

// typeIdent derives a Go type name from a class name: com/example/Outer$Inner
// becomes OuterInner.
func typeIdent(class string) string {
	if i := strings.LastIndexByte(class, '/'); i >= 0 {
		class = class[i+1:]
	}
	return exported(class)
}

// exported turns a member name into an exported Go identifier.
func exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s == "" || !unicode.IsLetter([]rune(s)[0]) {
		s = "X" + s
	}
	return s
}
