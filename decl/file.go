package decl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/sig"
)

// File is a set of class descriptors loaded from a declaration file.
//
// Member types are written as wire signatures:
//
//	{
//	  "package": "widgets",
//	  "classes": [{
//	    "name": "com/example/Widget",
//	    "extends": "com/example/Base",
//	    "fields": [{"name": "id", "type": "J"}],
//	    "constructors": ["()V", "(I)V"],
//	    "methods": [{"name": "resize", "overloads": ["(I)V", "(FF)V"]}],
//	    "static": {"methods": [{"name": "create", "overloads": ["()Lcom/example/Widget;"]}]}
//	  }],
//	  "loaders": [{"name": "plugins", "parent": "default", "classes": ["com/example/Widget"]}]
//	}
type File struct {
	Package string
	Classes []*Class
	Loaders []LoaderSpec
}

// LoaderSpec names a custom class loader and the classes it vends.
type LoaderSpec struct {
	Name    string   `json:"name"`
	Parent  string   `json:"parent,omitempty"`
	Classes []string `json:"classes"`
}

type fileJSON struct {
	Package string       `json:"package,omitempty"`
	Classes []classJSON  `json:"classes"`
	Loaders []LoaderSpec `json:"loaders,omitempty"`
}

type classJSON struct {
	Static       *staticJSON  `json:"static,omitempty"`
	Name         string       `json:"name"`
	Extends      string       `json:"extends,omitempty"`
	Fields       []fieldJSON  `json:"fields,omitempty"`
	Methods      []methodJSON `json:"methods,omitempty"`
	Constructors []string     `json:"constructors,omitempty"`
}

type staticJSON struct {
	Fields  []fieldJSON  `json:"fields,omitempty"`
	Methods []methodJSON `json:"methods,omitempty"`
}

type fieldJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type methodJSON struct {
	Name      string   `json:"name"`
	Overloads []string `json:"overloads"`
}

// LoadFile reads and parses a declaration file.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseFailed("declaration file "+path, err)
	}
	defer f.Close()
	return ParseFile(f)
}

// ParseFile parses a declaration file and validates every class.
func ParseFile(r io.Reader) (*File, error) {
	var raw fileJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.ParseFailed("declaration file", err)
	}

	byName := make(map[string]*Class, len(raw.Classes))
	out := &File{Package: raw.Package, Loaders: raw.Loaders}

	for _, rc := range raw.Classes {
		if _, dup := byName[rc.Name]; dup {
			return nil, errors.InvalidDeclaration([]string{rc.Name}, "class declared twice")
		}
		cls := NewClass(rc.Name)
		byName[rc.Name] = cls
		out.Classes = append(out.Classes, cls)
	}

	for i, rc := range raw.Classes {
		cls := out.Classes[i]
		if rc.Extends != "" {
			parent, ok := byName[rc.Extends]
			if !ok {
				parent = NewClass(rc.Extends)
			}
			cls.Parent = parent
		}

		var err error
		if cls.Fields, err = parseFields(rc.Name, rc.Fields); err != nil {
			return nil, err
		}
		if cls.Methods, err = parseMethods(rc.Name, rc.Methods); err != nil {
			return nil, err
		}
		for _, s := range rc.Constructors {
			ret, params, err := sig.DecodeMethod(s)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, rc.Name+" constructor")
			}
			if !ret.IsVoid() {
				return nil, errors.InvalidDeclaration([]string{rc.Name, sig.ConstructorName},
					fmt.Sprintf("constructor %s must return void", s))
			}
			cls.Constructors = append(cls.Constructors, Constructor{Params: params})
		}
		if rc.Static != nil {
			st := &Static{}
			if st.Fields, err = parseFields(rc.Name, rc.Static.Fields); err != nil {
				return nil, err
			}
			if st.Methods, err = parseMethods(rc.Name, rc.Static.Methods); err != nil {
				return nil, err
			}
			cls.Static = st
		}
	}

	for _, cls := range out.Classes {
		if err := cls.Validate(); err != nil {
			return nil, err
		}
	}
	for _, l := range out.Loaders {
		for _, name := range l.Classes {
			if _, ok := byName[name]; !ok {
				return nil, errors.NotFound(errors.PhaseLoader, "class "+name+" of loader "+l.Name, name)
			}
		}
	}
	return out, nil
}

// Class returns the class named name.
func (f *File) Class(name string) (*Class, bool) {
	for _, c := range f.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func parseFields(class string, raw []fieldJSON) ([]Field, error) {
	var out []Field
	for _, rf := range raw {
		t, err := sig.DecodeType(rf.Type)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, class+"."+rf.Name)
		}
		out = append(out, Field{Name: rf.Name, Type: t})
	}
	return out, nil
}

func parseMethods(class string, raw []methodJSON) ([]Method, error) {
	var out []Method
	for _, rm := range raw {
		m := Method{Name: rm.Name}
		for _, s := range rm.Overloads {
			ret, params, err := sig.DecodeMethod(s)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, class+"."+rm.Name)
			}
			m.Overloads = append(m.Overloads, Overload{Return: ret, Params: params})
		}
		out = append(out, m)
	}
	return out, nil
}
